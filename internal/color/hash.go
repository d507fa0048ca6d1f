package color

import (
	"fmt"
	"hash/fnv"
	"math"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// RenderHash renders s in the color derived from hashing it, so that a task
// ID always appears in the same color.
func RenderHash(s string) string {
	return globalColorer.render(s)
}

// Hash returns the color derived from hashing s.
func Hash(s string) lipgloss.AdaptiveColor {
	return globalColorer.hash(s)
}

var globalColorer = &colorer{
	colorCache:  map[string]lipgloss.AdaptiveColor{},
	renderCache: map[string]string{},
}

type colorer struct {
	mu          sync.Mutex
	colorCache  map[string]lipgloss.AdaptiveColor
	renderCache map[string]string
}

func (c *colorer) render(s string) string {
	color := c.hash(s)

	c.mu.Lock()
	defer c.mu.Unlock()

	if out, ok := c.renderCache[s]; ok {
		return out
	}
	c.renderCache[s] = lipgloss.NewStyle().Foreground(color).Render(s)
	return c.renderCache[s]
}

func (c *colorer) hash(s string) lipgloss.AdaptiveColor {
	c.mu.Lock()
	defer c.mu.Unlock()

	if color, ok := c.colorCache[s]; ok {
		return color
	}
	hue := float64(hash(s)) / float64(math.MaxUint32)
	c.colorCache[s] = lipgloss.AdaptiveColor{
		Dark:  hsl{hue, 1.0, 0.7}.hex(),
		Light: hsl{hue, 1.0, 0.3}.hex(),
	}
	return c.colorCache[s]
}

func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

type hsl struct{ h, s, l float64 }

func (c hsl) hex() string {
	var q float64
	if c.l < 0.5 {
		q = c.l * (1 + c.s)
	} else {
		q = c.l + c.s - c.l*c.s
	}
	p := 2*c.l - q
	r := hueToRGB(p, q, c.h+1.0/3)
	g := hueToRGB(p, q, c.h)
	b := hueToRGB(p, q, c.h-1.0/3)
	return fmt.Sprintf("#%02X%02X%02X", int(r*255), int(g*255), int(b*255))
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}
