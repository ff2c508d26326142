// Command conduit serves the Conduit API and manages its database.
package main

import (
	"os"

	"conduit/internal/middleware"
)

// @title Conduit API
// @version 1.0
// @description Blogging platform API with users, profiles, articles, comments, tags and favorites
// @termsOfService http://swagger.io/terms/

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey Token
// @in header
// @name Authorization
// @description Type "Token" followed by a space and the JWT.

func main() {
	if err := rootCmd.Execute(); err != nil {
		middleware.Logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
