package config

import (
	"github.com/knadh/koanf/v2"
)

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"server.host": "0.0.0.0",
		"server.port": 8080,

		"database.max_connections": 25,

		"storage.base_dir": "./uploads",

		// Inline recognition is capped by the backend at roughly 10 MB of
		// payload; stay under it with headroom.
		"asr.language_code":    "en-US",
		"asr.inline_max_bytes": int64(8 * 1024 * 1024),
		"asr.chunk_seconds":    55,
		"asr.poll_budget":      "1h",

		"ffmpeg.path": "",

		"queue.exchange":       "meetings.exchange",
		"queue.name":           "meetings.jobs",
		"queue.routing_key":    "meetings.process",
		"queue.async_dispatch": true,

		"llm.model": "gemini-2.0-flash",

		"mail.enabled": false,
		"mail.port":    587,
		"mail.from":    "noreply@example.com",

		"worker.concurrency":       1,
		"worker.recovery_interval": "60s",

		"logging.level":  "info",
		"logging.format": "pretty",
	}

	for key, val := range defaults {
		k.Set(key, val)
	}
	return nil
}
