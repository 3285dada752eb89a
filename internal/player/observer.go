package player

import (
	"time"

	"signage-player/internal/slide"
)

// Observer receives playback events. Implementations live in the metrics
// and database packages; every method is called from the loop goroutine.
type Observer interface {
	FetchSucceeded(url string, items int, took time.Duration)
	FetchFailed(url string, err error, took time.Duration)
	StateChanged(state State)
	SlideShown(s *slide.Slide)
	SlideFinished(s *slide.Slide, shown time.Duration)
	ItemMissing(cursor int)
	Progress(ratio float64)
}

// Observers fans events out to several observers.
type Observers []Observer

func (o Observers) FetchSucceeded(url string, items int, took time.Duration) {
	for _, obs := range o {
		obs.FetchSucceeded(url, items, took)
	}
}

func (o Observers) FetchFailed(url string, err error, took time.Duration) {
	for _, obs := range o {
		obs.FetchFailed(url, err, took)
	}
}

func (o Observers) StateChanged(state State) {
	for _, obs := range o {
		obs.StateChanged(state)
	}
}

func (o Observers) SlideShown(s *slide.Slide) {
	for _, obs := range o {
		obs.SlideShown(s)
	}
}

func (o Observers) SlideFinished(s *slide.Slide, shown time.Duration) {
	for _, obs := range o {
		obs.SlideFinished(s, shown)
	}
}

func (o Observers) ItemMissing(cursor int) {
	for _, obs := range o {
		obs.ItemMissing(cursor)
	}
}

func (o Observers) Progress(ratio float64) {
	for _, obs := range o {
		obs.Progress(ratio)
	}
}
