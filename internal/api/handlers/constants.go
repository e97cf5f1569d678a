package handlers

import "github.com/Conceptual-Machines/magda-composer/internal/store"

const (
	maxListPageSize = store.DefaultListLimit // Maximum page size for composition history
	bytesToMB       = 1024 * 1024
)
