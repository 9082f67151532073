package cli

import (
	"fmt"
	"sync"
	"time"
)

// transferProgress renders one live line for the file currently streaming
// down, redrawn in place until the transfer moves on. It is fed through
// Observe, which matches nsg.ProgressFunc; files arrive strictly one at a
// time, so a single set of scratch fields is enough.
type transferProgress struct {
	enabled bool

	mu          sync.Mutex
	index       int
	filename    string
	transferred uint64
	total       uint64
	started     time.Time

	stop chan struct{}
}

func newTransferProgress(enabled bool) *transferProgress {
	return &transferProgress{enabled: enabled, stop: make(chan struct{})}
}

func (p *transferProgress) Start() {
	if !p.enabled {
		return
	}
	go func() {
		t := time.NewTicker(200 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-t.C:
				p.mu.Lock()
				line := p.render()
				p.mu.Unlock()
				if line != "" {
					fmt.Printf("\r\033[2K%s", line)
				}
			}
		}
	}()
}

func (p *transferProgress) Stop(final string) {
	if !p.enabled {
		return
	}
	close(p.stop)
	fmt.Printf("\r\033[2K%s\n", final)
}

// Observe matches nsg.ProgressFunc.
func (p *transferProgress) Observe(filename string, transferred, total uint64) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if filename != p.filename {
		if p.filename != "" {
			fmt.Printf("\r\033[2K%s\n", p.render())
		}
		p.index++
		p.filename = filename
		p.started = time.Now()
	}
	p.transferred = transferred
	p.total = total
}

func (p *transferProgress) render() string {
	if p.filename == "" {
		return ""
	}
	line := fmt.Sprintf("[%d] %s  %s/%s", p.index, truncate(p.filename, 52),
		formatBytesIEC(p.transferred), formatBytesIEC(p.total))
	if p.total > 0 {
		line += fmt.Sprintf("  %.1f%%", float64(p.transferred)/float64(p.total)*100)
	}
	if elapsed := time.Since(p.started).Seconds(); elapsed > 0.5 && p.transferred > 0 {
		line += fmt.Sprintf("  %s/s", formatBytesIEC(uint64(float64(p.transferred)/elapsed)))
	}
	return line
}
