package main

// Provider blank imports — each import activates a self-registering adapter.
// Add new providers here as they are implemented.

import (
	_ "github.com/brixworks/sitesync/internal/adapter/acc"
	_ "github.com/brixworks/sitesync/internal/adapter/fieldwire"
	_ "github.com/brixworks/sitesync/internal/adapter/procore"
)
