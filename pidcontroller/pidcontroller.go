/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package pidcontroller implements a small discrete PID controller used to
// space out a monotonic float64 range (duration ramps, backoff schedules)
// instead of a flat linear step.
package pidcontroller

import "context"

// Controller is a discrete proportional-integral-derivative controller.
type Controller struct {
	kP, kI, kD float64
}

// New creates a Controller with the given proportional, integral and
// derivative gains.
func New(kP, kI, kD float64) *Controller {
	return &Controller{kP: kP, kI: kI, kD: kD}
}

// RangeCtx walks from start to end, emitting each intermediate setpoint the
// controller settles on along the way. It stops early (returning whatever
// was produced so far) if ctx is cancelled.
func (c *Controller) RangeCtx(ctx context.Context, start, end float64) []float64 {
	var (
		res       = make([]float64, 0, 8)
		errPrev   float64
		integral  float64
		current   = start
		target    = end
		direction = 1.0
	)

	if end < start {
		direction = -1.0
	}

	res = append(res, current)

	for i := 0; i < 64; i++ {
		select {
		case <-ctx.Done():
			return res
		default:
		}

		err := target - current
		if direction > 0 && err <= 0 {
			break
		}
		if direction < 0 && err >= 0 {
			break
		}

		integral += err
		derivative := err - errPrev
		errPrev = err

		step := c.kP*err + c.kI*integral + c.kD*derivative
		if step == 0 {
			break
		}

		current += step
		if (direction > 0 && current >= target) || (direction < 0 && current <= target) {
			current = target
			res = append(res, current)
			break
		}

		res = append(res, current)
	}

	return res
}
