package reports

import (
	"sync"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
)

type ISetup interface {
	build() (models.SetupReturn, error)
}

type Setup struct {
	ChannelSize int
}

// Instantiate all channels and data structure we will use in the concurrent generation process
// Its useful to have it in a separated struct to be able to leverage DI for testing
func (h Setup) build() (models.SetupReturn, error) {
	size := h.ChannelSize
	if size < 1 {
		size = 100
	}

	channels := models.GenerationChannels{
		Jobs:    make(chan models.StudentJob, size),
		Results: make(chan models.StudentReport, size),
		Errors:  make(chan models.GenerationFailure, size),
	}

	var reportWg, mainWg sync.WaitGroup
	return models.SetupReturn{
		Channels:   &channels,
		WaitGroups: &models.GenerationWaitGroups{ReportWg: &reportWg, MainWg: &mainWg},
		FailureMap: &models.FailureMap{},
	}, nil
}
