package monitor

import (
	"regexp"
	"strings"

	"github.com/buildwatch/buildwatch/internal/domain"
)

// Classification is the result of running a raw line through a rule cascade.
// Suppressed lines are never buffered or mirrored.
type Classification struct {
	Message  string
	Category domain.Category
	Suppress bool
}

// noisePatterns are package-manager housekeeping lines that drown out the
// interesting provisioning output.
var noisePatterns = []string{
	"dpkg-preconfigure",
	"update-alternatives",
	"ldconfig deferred processing",
	"Processing triggers",
	"Setting up man-db",
}

// importantKeywords gate the provisioning fallback: lines mentioning none of
// these are suppressed.
var importantKeywords = []string{
	"install", "download", "pull", "start", "complete",
	"error", "warn", "fail", "success", "docker", "gpu",
	"building", "running", "configured", "enabled",
}

var packageRe = regexp.MustCompile(`(Setting up|Unpacking) ([^\s]+)`)

// provisionRule is one step of the provisioning cascade. Rules run in order;
// the first rule whose apply returns ok wins.
type provisionRule struct {
	name  string
	apply func(line, lower string) (Classification, bool)
}

var provisionRules = []provisionRule{
	{"noise", func(line, lower string) (Classification, bool) {
		for _, pattern := range noisePatterns {
			if strings.Contains(line, pattern) {
				return Classification{Suppress: true}, true
			}
		}
		return Classification{}, false
	}},
	{"pull-progress", func(line, lower string) (Classification, bool) {
		if strings.Contains(line, "Pulling") || strings.Contains(line, "Downloading") {
			return Classification{Message: "📥 " + line, Category: domain.CategoryProvisioning}, true
		}
		return Classification{}, false
	}},
	{"pull-complete", func(line, lower string) (Classification, bool) {
		if strings.Contains(line, "Pull complete") || strings.Contains(line, "Download complete") {
			return Classification{Message: "✓ " + line, Category: domain.CategorySuccess}, true
		}
		return Classification{}, false
	}},
	{"package", func(line, lower string) (Classification, bool) {
		if !strings.Contains(line, "Setting up") && !strings.Contains(line, "Unpacking") {
			return Classification{}, false
		}
		if m := packageRe.FindStringSubmatch(line); m != nil {
			return Classification{Message: "📦 Installing " + m[2], Category: domain.CategoryProvisioning}, true
		}
		return Classification{Message: "📦 " + line, Category: domain.CategoryProvisioning}, true
	}},
	{"container-runtime", func(line, lower string) (Classification, bool) {
		if strings.Contains(lower, "docker") && (strings.Contains(lower, "start") || strings.Contains(lower, "enable")) {
			return Classification{Message: "🐳 " + line, Category: domain.CategoryProvisioning}, true
		}
		return Classification{}, false
	}},
	{"accelerator", func(line, lower string) (Classification, bool) {
		if !strings.Contains(lower, "nvidia") && !strings.Contains(lower, "gpu") && !strings.Contains(lower, "cuda") {
			return Classification{}, false
		}
		if strings.Contains(line, "nvidia-smi") {
			return Classification{Message: "🎮 GPU drivers verified", Category: domain.CategoryProvisioning}, true
		}
		return Classification{Message: "🎮 " + line, Category: domain.CategoryProvisioning}, true
	}},
	{"monitoring", func(line, lower string) (Classification, bool) {
		if strings.Contains(lower, "build-monitor") || strings.Contains(lower, "buildwatch") {
			return Classification{Message: "📊 " + line, Category: domain.CategoryProvisioning}, true
		}
		return Classification{}, false
	}},
	{"service-manager", func(line, lower string) (Classification, bool) {
		if strings.Contains(line, "systemctl") && (strings.Contains(line, "enable") || strings.Contains(line, "start")) {
			return Classification{Message: "⚙️  " + line, Category: domain.CategoryProvisioning}, true
		}
		return Classification{}, false
	}},
	{"error", func(line, lower string) (Classification, bool) {
		if strings.Contains(lower, "error") || strings.Contains(lower, "failed") {
			return Classification{Message: "❌ " + line, Category: domain.CategoryError}, true
		}
		return Classification{}, false
	}},
	{"warning", func(line, lower string) (Classification, bool) {
		if strings.Contains(lower, "warn") {
			return Classification{Message: "⚠️  " + line, Category: domain.CategoryWarning}, true
		}
		return Classification{}, false
	}},
	{"success", func(line, lower string) (Classification, bool) {
		if strings.Contains(lower, "success") || strings.Contains(lower, "complete") || strings.Contains(line, "✓") {
			return Classification{Message: "✓ " + line, Category: domain.CategorySuccess}, true
		}
		return Classification{}, false
	}},
	{"important-fallback", func(line, lower string) (Classification, bool) {
		for _, k := range importantKeywords {
			if strings.Contains(lower, k) {
				return Classification{Message: "   " + line, Category: domain.CategoryProvisioning}, true
			}
		}
		return Classification{Suppress: true}, true
	}},
}

// ClassifyProvisioning runs a provisioning log line through the cascade.
func ClassifyProvisioning(line string) Classification {
	line = strings.TrimSpace(line)
	if line == "" {
		return Classification{Suppress: true}
	}

	lower := strings.ToLower(line)
	for _, rule := range provisionRules {
		if c, ok := rule.apply(line, lower); ok {
			return c
		}
	}
	// The fallback rule always matches.
	return Classification{Suppress: true}
}

var datePrefixRe = regexp.MustCompile(`^\[?\d{4}-\d{2}-\d{2}`)

// ClassifyContainer formats a container log line. Container lines are never
// suppressed; an unrecognized line passes through indented.
func ClassifyContainer(line string) Classification {
	line = strings.TrimSpace(line)

	// Structured logs with a date prefix get level-token detection first.
	if datePrefixRe.MatchString(line) {
		switch {
		case strings.Contains(line, "ERROR") || strings.Contains(line, " E "):
			return Classification{Message: "❌ " + line, Category: domain.CategoryError}
		case strings.Contains(line, "WARN") || strings.Contains(line, " W "):
			return Classification{Message: "⚠️  " + line, Category: domain.CategoryWarning}
		case strings.Contains(line, "INFO") || strings.Contains(line, " I "):
			return Classification{Message: "ℹ️  " + line, Category: domain.CategoryContainer}
		case strings.Contains(line, "DEBUG") || strings.Contains(line, " D "):
			return Classification{Message: "🐛 " + line, Category: domain.CategoryContainer}
		}
	}

	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "error") || strings.Contains(lower, "exception") || strings.Contains(lower, "failed"):
		return Classification{Message: "❌ " + line, Category: domain.CategoryError}
	case strings.Contains(lower, "warn"):
		return Classification{Message: "⚠️  " + line, Category: domain.CategoryWarning}
	case strings.Contains(lower, "success") || strings.Contains(lower, "started") || strings.Contains(lower, "ready"):
		return Classification{Message: "✓ " + line, Category: domain.CategorySuccess}
	}

	return Classification{Message: "   " + line, Category: domain.CategoryContainer}
}
