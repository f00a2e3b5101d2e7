package repository

import "errors"

// Domain errors surfaced by the repositories. Services translate anything
// else into an internal error.
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExists      = errors.New("session already exists")
	ErrWebsiteUnavailable = errors.New("website not found or inactive")
	ErrWebsiteNotFound    = errors.New("website not found")
	ErrWebsiteInUse       = errors.New("website has active or waiting chat sessions")
	ErrAgentNotFound      = errors.New("agent not found")
	ErrAgentUnavailable   = errors.New("agent not found or offline")
	ErrAgentBusy          = errors.New("agent has reached maximum concurrent chats")
	ErrAgentHasSessions   = errors.New("agent has active chat sessions")
	ErrEmailTaken         = errors.New("agent with this email already exists")
	ErrDomainTaken        = errors.New("website with this domain already registered")
	ErrSurveyNotFound     = errors.New("survey not found")
)
