package services

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrCampaignGenerating = errors.New("campaign is generating")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrNothingToGenerate  = errors.New("campaign has no platforms or targets to generate")
	ErrQueueFull          = errors.New("generation queue is full")
	ErrNotConfigured      = errors.New("feature not configured")
)
