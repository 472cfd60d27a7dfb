package queue

import (
	"context"
	"errors"
	"testing"

	"seller-gateway/config"
	"seller-gateway/internal/core/ports"
	"seller-gateway/internal/core/ports/mocks"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestNewReconcilePendingTask(t *testing.T) {
	task := NewReconcilePendingTask()
	assert.Equal(t, TypeReconcilePending, task.Type())
	assert.Empty(t, task.Payload())
}

func TestReconcileHandler_ProcessTask(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockReconcileService(ctrl)
	svc.EXPECT().ReconcilePending(gomock.Any()).Return(&ports.ReconcileReport{Checked: 3, Applied: 2}, nil)

	mux := NewServeMux(NewReconcileHandler(svc, zerolog.Nop()))
	err := mux.ProcessTask(context.Background(), asynq.NewTask(TypeReconcilePending, nil))
	require.NoError(t, err)
}

func TestReconcileHandler_ProcessTask_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockReconcileService(ctrl)
	svc.EXPECT().ReconcilePending(gomock.Any()).Return(nil, errors.New("db down"))

	h := NewReconcileHandler(svc, zerolog.Nop())
	err := h.ProcessTask(context.Background(), NewReconcilePendingTask())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestServeMux_UnknownTaskType(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mux := NewServeMux(NewReconcileHandler(mocks.NewMockReconcileService(ctrl), zerolog.Nop()))
	err := mux.ProcessTask(context.Background(), asynq.NewTask("ledger:unknown", nil))
	assert.Error(t, err)
}

func TestRegisterSchedules(t *testing.T) {
	redisCfg := config.RedisConfig{Host: "localhost", Port: 6379}

	t.Run("valid cron", func(t *testing.T) {
		scheduler := asynq.NewScheduler(RedisOpt(redisCfg), &asynq.SchedulerOpts{})
		err := RegisterSchedules(scheduler, config.WorkerConfig{ReconcileCron: "*/15 * * * *"})
		assert.NoError(t, err)
	})

	t.Run("invalid cron", func(t *testing.T) {
		scheduler := asynq.NewScheduler(RedisOpt(redisCfg), &asynq.SchedulerOpts{})
		err := RegisterSchedules(scheduler, config.WorkerConfig{ReconcileCron: "every now and then"})
		assert.Error(t, err)
	})
}

func TestRedisOpt(t *testing.T) {
	opt := RedisOpt(config.RedisConfig{Host: "cache", Port: 6380, Password: "pw", DB: 2})
	assert.Equal(t, "cache:6380", opt.Addr)
	assert.Equal(t, "pw", opt.Password)
	assert.Equal(t, 2, opt.DB)
}
