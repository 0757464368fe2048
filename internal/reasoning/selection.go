package reasoning

import (
	"context"
	"log/slog"
	"slices"
)

// FallbackModel is used when the model probe fails or finds nothing known.
const FallbackModel = "gemini-1.5-flash"

// PreferredModels lists model identifiers from most to least preferred.
var PreferredModels = []string{
	"models/gemini-3-flash-preview",
	"models/gemini-2.5-flash",
	"models/gemini-1.5-flash",
}

// SelectModel probes the available models once and returns the first
// preferred identifier present. Probe errors fall back to fallback.
func SelectModel(ctx context.Context, lister ModelLister, preferred []string, fallback string, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}
	available, err := lister.ListModels(ctx)
	if err != nil {
		logger.Warn("Model probe failed, using fallback model", "fallback", fallback, "error", err)
		return fallback
	}
	for _, id := range preferred {
		if slices.Contains(available, id) {
			logger.Info("Reasoning model selected", "model", id, "available", len(available))
			return id
		}
	}
	logger.Warn("No preferred model available, using fallback model", "fallback", fallback, "available", len(available))
	return fallback
}
