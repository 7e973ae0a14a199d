// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/devloop-ai/devloop/pkg/logging"
	"github.com/devloop-ai/devloop/services/llm"
	"github.com/devloop-ai/devloop/services/orchestrator"
)

// runRequest is the POST /v1/runs payload.
type runRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// runServe is the entry point for "devloop serve".
//
// Description:
//
//	Exposes the repair loop over HTTP: POST /v1/runs starts a run and
//	blocks until it finishes, GET /v1/runs/last returns the most
//	recent result, /healthz and /metrics serve liveness and
//	Prometheus scrapes. Runs execute one at a time on the request
//	goroutine; concurrent POSTs are rejected with 409.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.LogLevel),
		Service: "devloop-serve",
		JSON:    true,
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	client, err := llm.NewOllamaClient(cfg.Ollama.BaseURL, cfg.Ollama.Model)
	if err != nil {
		return err
	}
	orch := orchestrator.New(cfg, client, logger.Logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "model": client.Model()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	busy := make(chan struct{}, 1)
	v1 := router.Group("/v1")
	v1.GET("/runs/last", func(c *gin.Context) {
		last := orch.LastRun()
		if last == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no runs yet"})
			return
		}
		c.JSON(http.StatusOK, last)
	})
	v1.POST("/runs", func(c *gin.Context) {
		var req runRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		select {
		case busy <- struct{}{}:
			defer func() { <-busy }()
		default:
			c.JSON(http.StatusConflict, gin.H{"error": "a run is already in progress"})
			return
		}

		result, err := orch.Run(c.Request.Context(), req.Prompt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	addr := fmt.Sprintf(":%d", servePort)
	logger.Info("Serving API", "addr", addr)
	return router.Run(addr)
}
