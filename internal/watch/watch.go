// Package watch keeps declared operations running unattended: every
// operation's origin is watched for changes, and once activity settles the
// operation is re-executed. Filesystem events drive the fast path; a polling
// ticker backstops filesystems where fsnotify is unreliable.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cleverdata/haul/internal/config"
	"github.com/cleverdata/haul/internal/transfer"
)

// ResultFunc receives the result of each re-executed operation.
type ResultFunc func(transfer.OperationResult)

type opState struct {
	pendingTimer *time.Timer
	running      bool
	rerunAfter   bool
}

// Run watches every operation's origin and re-executes an operation after
// its origin has been quiet for the settling delay. Blocks until ctx is
// cancelled. Each operation runs serially with itself; distinct operations
// run concurrently through the usual executor.
func Run(ctx context.Context, operations []config.FileOperation, global config.RateLimit, wc config.WatchConfig, onResult ResultFunc) error {
	if len(operations) == 0 {
		return fmt.Errorf("no operations configured")
	}

	settling, err := time.ParseDuration(wc.SettlingDelay)
	if err != nil || settling <= 0 {
		settling = 5 * time.Second
	}
	pollInterval, err := time.ParseDuration(wc.PollingInterval)
	if err != nil || pollInterval <= 0 {
		pollInterval = 1 * time.Minute
	}

	// Origins may feed several operations; index them so one event fans out
	// to every operation it affects.
	byOrigin := make(map[string][]int)
	for i, op := range operations {
		origin, aerr := filepath.Abs(op.Origin)
		if aerr != nil {
			origin = op.Origin
		}
		byOrigin[origin] = append(byOrigin[origin], i)
	}

	// Queues hold at least one slot per operation so the startup pass below
	// can enqueue the whole plan before the orchestrator loop starts draining.
	queueLen := len(operations)
	if queueLen < 100 {
		queueLen = 100
	}
	touched := make(chan int, queueLen)
	settled := make(chan int, queueLen)
	finished := make(chan int, queueLen)

	touchOrigin := func(origin string) {
		for _, idx := range byOrigin[origin] {
			select {
			case touched <- idx:
			default:
			}
		}
	}

	// --- INPUT SOURCE 1: FSNOTIFY (Real-time) ---
	if !wc.DisableFsnotify {
		watcher, werr := fsnotify.NewWatcher()
		if werr != nil {
			return fmt.Errorf("failed to create watcher: %w", werr)
		}
		defer watcher.Close()

		for origin := range byOrigin {
			// A file origin is watched through its parent directory; events
			// for siblings are filtered below.
			watchPath := origin
			if info, serr := os.Stat(origin); serr != nil || !info.IsDir() {
				watchPath = filepath.Dir(origin)
			}
			if werr := watcher.Add(watchPath); werr != nil {
				log.Printf("Cannot watch %s: %v", watchPath, werr)
			}
		}

		go func() {
			for {
				select {
				case e, ok := <-watcher.Events:
					if !ok {
						return
					}
					if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
						continue
					}
					abs, _ := filepath.Abs(e.Name)
					for origin := range byOrigin {
						if abs == origin || isUnder(abs, origin) {
							touchOrigin(origin)
						}
					}
				case <-watcher.Errors:
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		log.Println("FSNOTIFY disabled. Running in polling-only mode.")
	}

	// --- INPUT SOURCE 2: POLLER (Backstop) ---
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				for origin := range byOrigin {
					touchOrigin(origin)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Initial pass: every operation runs once at startup.
	for i := range operations {
		touched <- i
	}

	// --- ORCHESTRATOR ---
	states := make(map[int]*opState)
	for {
		select {
		case idx := <-touched:
			st := states[idx]
			if st == nil {
				st = &opState{}
				states[idx] = st
			}

			if st.running {
				// Re-run once the current execution finishes.
				st.rerunAfter = true
				continue
			}
			if st.pendingTimer != nil {
				st.pendingTimer.Stop()
			}
			st.pendingTimer = time.AfterFunc(settling, func() {
				select {
				case settled <- idx:
				case <-ctx.Done():
				}
			})

		case idx := <-settled:
			st := states[idx]
			if st == nil || st.running {
				continue
			}
			st.pendingTimer = nil
			st.running = true

			op := operations[idx]
			log.Printf("[%s] Settled, executing", op.Name)
			go func(idx int, op config.FileOperation) {
				results := transfer.ExecuteOperations([]config.FileOperation{op}, global, nil)
				if onResult != nil {
					for _, r := range results {
						onResult(r)
					}
				}
				select {
				case finished <- idx:
				case <-ctx.Done():
				}
			}(idx, op)

		case idx := <-finished:
			st := states[idx]
			if st == nil {
				continue
			}
			st.running = false
			if st.rerunAfter {
				st.rerunAfter = false
				st.pendingTimer = time.AfterFunc(settling, func() {
					select {
					case settled <- idx:
					case <-ctx.Done():
					}
				})
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func isUnder(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
