package gpio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// DefaultChip is the GPIO character device carrying the Raspberry Pi header.
const DefaultChip = "gpiochip0"

// Consumer labels requested lines in the kernel's line info.
const Consumer = "vuoro"

// Level is the electrical state of a pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// Bias selects the internal resistor applied to an input line.
type Bias string

const (
	BiasPullUp   Bias = "pull_up"
	BiasPullDown Bias = "pull_down"
	BiasDisabled Bias = "disabled"
	BiasAsIs     Bias = "as_is"
)

func (b Bias) option() (gpiocdev.LineReqOption, error) {
	switch b {
	case BiasPullUp:
		return gpiocdev.WithPullUp, nil
	case BiasPullDown:
		return gpiocdev.WithPullDown, nil
	case BiasDisabled:
		return gpiocdev.WithBiasDisabled, nil
	case BiasAsIs, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("gpio: unknown bias %q", string(b))
	}
}

// Input is a readable pin.
type Input interface {
	Read() (Level, error)
	Close() error
}

// Output is a writable pin.
type Output interface {
	Write(Level) error
	Close() error
}

// ErrClosed is returned by operations on a closed pin.
var ErrClosed = errors.New("gpio pin closed")

// Pin is a GPIO line requested from a character device for the lifetime of
// the process.
type Pin struct {
	chip   string
	offset int
	line   *gpiocdev.Line
}

// OpenInput requests offset on chip (DefaultChip when empty) as an input with
// the given bias.
func OpenInput(chip string, offset int, bias Bias) (*Pin, error) {
	biasOpt, err := bias.option()
	if err != nil {
		return nil, err
	}
	opts := []gpiocdev.LineReqOption{gpiocdev.WithConsumer(Consumer), gpiocdev.AsInput}
	if biasOpt != nil {
		opts = append(opts, biasOpt)
	}
	return request(chip, offset, opts...)
}

// OpenOutput requests offset on chip as an output driven low.
func OpenOutput(chip string, offset int) (*Pin, error) {
	return request(chip, offset, gpiocdev.WithConsumer(Consumer), gpiocdev.AsOutput(0))
}

func request(chip string, offset int, opts ...gpiocdev.LineReqOption) (*Pin, error) {
	if offset < 0 {
		return nil, fmt.Errorf("gpio: invalid line %d", offset)
	}
	chip = strings.TrimSpace(chip)
	if chip == "" {
		chip = DefaultChip
	}
	line, err := gpiocdev.RequestLine(chip, offset, opts...)
	if err != nil {
		return nil, fmt.Errorf("gpio %s line %d: %w", chip, offset, err)
	}
	return &Pin{chip: chip, offset: offset, line: line}, nil
}

// Number returns the line offset on its chip.
func (p *Pin) Number() int { return p.offset }

// Read samples the line value.
func (p *Pin) Read() (Level, error) {
	if p.line == nil {
		return Low, ErrClosed
	}
	value, err := p.line.Value()
	if err != nil {
		return Low, fmt.Errorf("gpio %s line %d: read: %w", p.chip, p.offset, err)
	}
	return Level(value != 0), nil
}

// Write drives the line.
func (p *Pin) Write(level Level) error {
	if p.line == nil {
		return ErrClosed
	}
	value := 0
	if level == High {
		value = 1
	}
	if err := p.line.SetValue(value); err != nil {
		return fmt.Errorf("gpio %s line %d: write: %w", p.chip, p.offset, err)
	}
	return nil
}

// Close releases the line back to the kernel.
func (p *Pin) Close() error {
	if p.line == nil {
		return nil
	}
	err := p.line.Close()
	p.line = nil
	if err != nil {
		return fmt.Errorf("gpio %s line %d: close: %w", p.chip, p.offset, err)
	}
	return nil
}
