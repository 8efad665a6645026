package feed

import (
	"github.com/Borislavv/go-ash-feed/internal/asset"
	"github.com/Borislavv/go-ash-feed/model"
	"time"
)

type State int

const (
	Idle State = iota
	Scrolling
	Settled
)

func (s State) String() string {
	switch s {
	case Scrolling:
		return "scrolling"
	case Settled:
		return "settled"
	default:
		return "idle"
	}
}

// Cell is a virtualized list cell showing one feed item. The controller calls
// it while holding its lock, so a Cell must not call back into the controller
// synchronously.
type Cell interface {
	Configure(item *model.VideoItem, h *asset.Handle)
	Play()
	Pause()
	PrepareForReuse()
}

type EventKind int

const (
	Like EventKind = iota
	Comment
	Bookmark
	Share
	OpenProfile
)

func (k EventKind) String() string {
	switch k {
	case Like:
		return "like"
	case Comment:
		return "comment"
	case Bookmark:
		return "bookmark"
	case Share:
		return "share"
	case OpenProfile:
		return "open_profile"
	default:
		return "unknown"
	}
}

// Event is a user action on a feed item. The controller only signals it.
type Event struct {
	Kind  EventKind
	Index int
	Item  *model.VideoItem
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

type systemClock struct{}

func (systemClock) NowUnixNano() int64 { return time.Now().UnixNano() }

// PrefetchMetrics receives neighbor prefetch outcomes.
type PrefetchMetrics interface {
	PrefetchStarted()
	PrefetchCompleted()
	PrefetchFailed()
}

type noopPrefetchMetrics struct{}

func (noopPrefetchMetrics) PrefetchStarted()   {}
func (noopPrefetchMetrics) PrefetchCompleted() {}
func (noopPrefetchMetrics) PrefetchFailed()    {}
