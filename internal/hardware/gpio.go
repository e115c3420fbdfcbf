package hardware

/*------------------------------------------------------------------
 *
 * Purpose:	LNA bias-tee / enable-line control over a Linux GPIO
 *		character device (warthog618/go-gpiocdev). Named in the
 *		teacher's go.mod but not exercised anywhere in its
 *		retrieved source; wired here for a receiver's front-end
 *		LNA enable and status-LED lines.
 *
 *----------------------------------------------------------------*/

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// LNAController drives a single GPIO output line used to enable/disable
// a front-end LNA (or bias-tee) and, optionally, a status LED line.
type LNAController struct {
	lnaLine *gpiocdev.Line
	ledLine *gpiocdev.Line
}

// NewLNAController requests the LNA enable line (chip/offset) as an
// output, initially de-asserted, and the status LED line if ledOffset >= 0.
func NewLNAController(chip string, lnaOffset, ledOffset int) (*LNAController, error) {
	lnaLine, err := gpiocdev.RequestLine(chip, lnaOffset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("hardware: request LNA GPIO line %s:%d: %w", chip, lnaOffset, err)
	}

	c := &LNAController{lnaLine: lnaLine}

	if ledOffset >= 0 {
		ledLine, err := gpiocdev.RequestLine(chip, ledOffset, gpiocdev.AsOutput(0))
		if err != nil {
			lnaLine.Close()
			return nil, fmt.Errorf("hardware: request status LED GPIO line %s:%d: %w", chip, ledOffset, err)
		}
		c.ledLine = ledLine
	}

	return c, nil
}

// SetEnabled asserts or de-asserts the LNA enable line.
func (c *LNAController) SetEnabled(enabled bool) error {
	v := 0
	if enabled {
		v = 1
	}
	if err := c.lnaLine.SetValue(v); err != nil {
		return fmt.Errorf("hardware: set LNA line: %w", err)
	}
	return nil
}

// SetStatusLED drives the status LED line, if one was configured.
func (c *LNAController) SetStatusLED(on bool) error {
	if c.ledLine == nil {
		return nil
	}
	v := 0
	if on {
		v = 1
	}
	if err := c.ledLine.SetValue(v); err != nil {
		return fmt.Errorf("hardware: set status LED line: %w", err)
	}
	return nil
}

// Close releases both GPIO lines.
func (c *LNAController) Close() error {
	var err error
	if c.ledLine != nil {
		if e := c.ledLine.Close(); e != nil {
			err = e
		}
	}
	if e := c.lnaLine.Close(); e != nil {
		err = e
	}
	return err
}
