package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	supa "github.com/supabase-community/supabase-go"

	"presentersplit/internal/assembler"
	"presentersplit/internal/detector"
	"presentersplit/internal/jobs"
	"presentersplit/internal/worker"
)

// ApplicationHandler holds the shared dependencies of all HTTP handlers.
// Everything is injected at startup so tests can substitute fakes.
type ApplicationHandler struct {
	Detector   *detector.Detector
	Assembler  *assembler.Assembler
	Env        *jobs.Env
	Dispatcher *worker.Dispatcher
	DB         *supa.Client
	Logger     *logrus.Logger
	Validate   *validator.Validate
}

// NewApplicationHandler creates an ApplicationHandler.
func NewApplicationHandler(
	det *detector.Detector,
	asm *assembler.Assembler,
	env *jobs.Env,
	dispatcher *worker.Dispatcher,
	db *supa.Client,
	logger *logrus.Logger,
) *ApplicationHandler {
	return &ApplicationHandler{
		Detector:   det,
		Assembler:  asm,
		Env:        env,
		Dispatcher: dispatcher,
		DB:         db,
		Logger:     logger,
		Validate:   validator.New(),
	}
}
