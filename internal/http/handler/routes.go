package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers stay
// thin: parsing and status mapping here, behavior in the service.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	// Readiness (DB connectivity) and liveness probes
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/documents/upload", UploadDocument(docSvc))
	app.Get("/documents", ListDocuments(docSvc))
	app.Get("/documents/search", SearchDocuments(docSvc))
	app.Get("/documents/:id/versions", GetDocumentVersions(docSvc))
	app.Get("/documents/:id/download", DownloadDocument(docSvc))
	app.Get("/documents/:id/preview", PreviewDocument(docSvc))
	app.Delete("/documents/:id", DeleteDocument(docSvc))
}
