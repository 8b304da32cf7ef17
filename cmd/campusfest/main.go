// Package main is the entry point for the CampusFest API server.
package main

import (
	"os"
)

// @title CampusFest API
// @version 1.0
// @description Backend API for running multi-college fest competitions: programs, registrations, judging and leaderboards

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
