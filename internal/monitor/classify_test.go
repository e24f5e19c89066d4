package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/buildwatch/buildwatch/internal/domain"
)

func TestClassifyProvisioning(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		want     string
		category domain.Category
		suppress bool
	}{
		{
			name:     "noise suppressed",
			line:     "Processing triggers for libc-bin (2.35-0ubuntu3) ...",
			suppress: true,
		},
		{
			name:     "dpkg noise suppressed",
			line:     "dpkg-preconfigure: unable to re-open stdin",
			suppress: true,
		},
		{
			name:     "image pull progress",
			line:     "latest: Pulling from library/postgres",
			want:     "📥 latest: Pulling from library/postgres",
			category: domain.CategoryProvisioning,
		},
		{
			name:     "pull complete",
			line:     "7a2c55901189: Pull complete",
			want:     "✓ 7a2c55901189: Pull complete",
			category: domain.CategorySuccess,
		},
		{
			name:     "package extracts name",
			line:     "Setting up docker-ce (5:24.0.7-1~ubuntu.22.04~jammy) ...",
			want:     "📦 Installing docker-ce",
			category: domain.CategoryProvisioning,
		},
		{
			name:     "unpacking extracts name",
			line:     "Unpacking nginx-core (1.18.0-6ubuntu14) ...",
			want:     "📦 Installing nginx-core",
			category: domain.CategoryProvisioning,
		},
		{
			name:     "docker service start",
			line:     "Starting Docker Application Container Engine...",
			want:     "🐳 Starting Docker Application Container Engine...",
			category: domain.CategoryProvisioning,
		},
		{
			name:     "nvidia-smi check collapses",
			line:     "+ nvidia-smi --query-gpu=name --format=csv",
			want:     "🎮 GPU drivers verified",
			category: domain.CategoryProvisioning,
		},
		{
			name:     "gpu line passes through",
			line:     "Installing NVIDIA driver 535",
			want:     "🎮 Installing NVIDIA driver 535",
			category: domain.CategoryProvisioning,
		},
		{
			name:     "monitor setup",
			line:     "Installing build-monitor service",
			want:     "📊 Installing build-monitor service",
			category: domain.CategoryProvisioning,
		},
		{
			name:     "systemctl enable",
			line:     "+ systemctl enable app.service",
			want:     "⚙️  + systemctl enable app.service",
			category: domain.CategoryProvisioning,
		},
		{
			name:     "error line",
			line:     "E: Failed to fetch http://archive.ubuntu.com",
			want:     "❌ E: Failed to fetch http://archive.ubuntu.com",
			category: domain.CategoryError,
		},
		{
			name:     "warning line",
			line:     "Warning: apt does not have a stable CLI interface",
			want:     "⚠️  Warning: apt does not have a stable CLI interface",
			category: domain.CategoryWarning,
		},
		{
			name:     "important fallback indents",
			line:     "Configured network interfaces",
			want:     "   Configured network interfaces",
			category: domain.CategoryProvisioning,
		},
		{
			name:     "mundane line suppressed",
			line:     "Reading package lists...",
			suppress: true,
		},
		{
			name:     "blank suppressed",
			line:     "   ",
			suppress: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyProvisioning(tt.line)
			assert.Equal(t, tt.suppress, got.Suppress)
			if !tt.suppress {
				assert.Equal(t, tt.want, got.Message)
				assert.Equal(t, tt.category, got.Category)
			}
		})
	}
}

func TestClassifyContainer(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		want     string
		category domain.Category
	}{
		{
			name:     "structured error",
			line:     "2025-01-15 10:30:00 ERROR failed to open database",
			want:     "❌ 2025-01-15 10:30:00 ERROR failed to open database",
			category: domain.CategoryError,
		},
		{
			name:     "structured warn",
			line:     "[2025-01-15 10:30:00] WARN cache miss rate high",
			want:     "⚠️  [2025-01-15 10:30:00] WARN cache miss rate high",
			category: domain.CategoryWarning,
		},
		{
			name:     "structured info",
			line:     "2025-01-15 10:30:00 INFO request served",
			want:     "ℹ️  2025-01-15 10:30:00 INFO request served",
			category: domain.CategoryContainer,
		},
		{
			name:     "structured debug",
			line:     "2025-01-15 10:30:00 DEBUG cache lookup",
			want:     "🐛 2025-01-15 10:30:00 DEBUG cache lookup",
			category: domain.CategoryContainer,
		},
		{
			name:     "keyword error without date",
			line:     "Unhandled exception in worker",
			want:     "❌ Unhandled exception in worker",
			category: domain.CategoryError,
		},
		{
			name:     "keyword success",
			line:     "Server started on port 8000",
			want:     "✓ Server started on port 8000",
			category: domain.CategorySuccess,
		},
		{
			name:     "plain line indents",
			line:     "GET /api/v1/items 200",
			want:     "   GET /api/v1/items 200",
			category: domain.CategoryContainer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyContainer(tt.line)
			assert.False(t, got.Suppress)
			assert.Equal(t, tt.want, got.Message)
			assert.Equal(t, tt.category, got.Category)
		})
	}
}
