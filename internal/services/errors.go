package services

import "errors"

// Panel service errors
var (
	ErrUnknownSector  = errors.New("unknown sector")
	ErrUnknownCompany = errors.New("unknown company")
	ErrUnknownColumn  = errors.New("unknown panel column")
	ErrNoRows         = errors.New("no panel rows match the filter")

	// ErrAnalyzerNotConfigured is returned by Analyze when no model
	// collaborator was injected
	ErrAnalyzerNotConfigured = errors.New("analyzer not configured")
)
