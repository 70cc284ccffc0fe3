package job

import (
	"context"

	"github.com/finboard/finboard/internal/service"
)

// ThemeWarmJob force-recomputes the default theme cache entry so the first
// dashboard request of the day never pays for clustering and labeling.
type ThemeWarmJob struct {
	themes *service.ThemeService
}

func NewThemeWarmJob(themes *service.ThemeService) *ThemeWarmJob {
	return &ThemeWarmJob{themes: themes}
}

func (j *ThemeWarmJob) Name() string {
	return "theme_warm"
}

func (j *ThemeWarmJob) Run(ctx context.Context) error {
	if j.themes == nil {
		return nil
	}
	_, err := j.themes.GetThemes(ctx, j.themes.DefaultWindowHours(), j.themes.DefaultThemeCount(), true)
	return err
}
