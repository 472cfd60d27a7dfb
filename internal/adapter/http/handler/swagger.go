package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Seller Gateway API</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/swagger/spec',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: 'BaseLayout',
      persistAuthorization: true
    });
  </script>
</body>
</html>`

// openAPIDoc holds the OpenAPI YAML served under /swagger/spec.
var openAPIDoc []byte

// SetSwaggerSpec sets the OpenAPI document bytes. Called once from main.
func SetSwaggerSpec(doc []byte) {
	openAPIDoc = doc
}

// SwaggerSpec serves the raw OpenAPI YAML.
func SwaggerSpec(c *gin.Context) {
	if len(openAPIDoc) == 0 {
		c.String(http.StatusNotFound, "OpenAPI document not loaded")
		return
	}
	c.Data(http.StatusOK, "application/yaml", openAPIDoc)
}

// SwaggerUI serves a Swagger UI page that loads /swagger/spec.
func SwaggerUI(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerPage))
}
