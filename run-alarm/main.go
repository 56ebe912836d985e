// Command run-alarm is the alarm clock: it reads the PCF8523 RTC, renders
// the time onto the shift-register-driven seven-segment displays and the
// OLED panel, and watches the rotary encoder and snooze button.  A debug
// HTTP server exposes metrics, request traces, and a live PNG of the clock
// face for hacking on the program without the hardware attached.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/trace"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/jrockway/beaglebone-alarm-clock/controls"
	"github.com/jrockway/beaglebone-alarm-clock/display"
	"github.com/jrockway/beaglebone-alarm-clock/inputs"
	"github.com/jrockway/beaglebone-alarm-clock/millis"
	"github.com/jrockway/beaglebone-alarm-clock/panel"
	"github.com/jrockway/beaglebone-alarm-clock/rtc"
	"github.com/jrockway/beaglebone-alarm-clock/shiftreg"
	"github.com/jrockway/beaglebone-alarm-clock/state"
)

var (
	bind   = flag.String("bind", ":8080", "address to bind for debug/metrics server")
	i2cBus = flag.String("i2c", "", "i2c bus with the rtc and oled on it (empty for the first one)")

	hmSerial = flag.String("hm-serial", "GPIO2", "serial-in pin of the hours:minutes chain")
	hmClock  = flag.String("hm-clock", "GPIO3", "clock pin of the hours:minutes chain")
	hmLatch  = flag.String("hm-latch", "GPIO4", "latch pin of the hours:minutes chain")

	secSerial = flag.String("sec-serial", "GPIO5", "serial-in pin of the seconds chain")
	secClock  = flag.String("sec-clock", "GPIO6", "clock pin of the seconds chain")
	secLatch  = flag.String("sec-latch", "GPIO7", "latch pin of the seconds chain")

	alarmLED = flag.String("alarm-led", "GPIO17", "alarm indicator led")
	pmLED    = flag.String("pm-led", "GPIO27", "pm indicator led")
	buzzer   = flag.String("buzzer", "GPIO22", "alarm buzzer")

	inputChip    = flag.String("input-chip", "gpiochip0", "gpio character device with the input pins")
	rotaryA      = flag.Int("rotary-a", 13, "line offset of the rotary encoder's A phase")
	rotaryB      = flag.Int("rotary-b", 19, "line offset of the rotary encoder's B phase")
	rotaryButton = flag.Int("rotary-button", 12, "line offset of the rotary encoder's button")
	snoozePin    = flag.Int("snooze", 11, "line offset of the snooze button")

	setTime = flag.Bool("set-time", false, "set the rtc from the system clock at startup")
)

// updateInterval is how often the main loop polls the RTC and the controls.
const updateInterval = 50 * time.Millisecond

func outPin(name string) gpio.PinOut {
	p := gpioreg.ByName(name)
	if p == nil {
		log.Fatalf("no gpio pin named %q", name)
	}
	return p
}

// spawn runs f on a goroutine and delivers its error on the returned
// channel, giving up on the send if the context is cancelled before anyone
// receives.  The channel is closed once f has returned either way, so a
// shutdown drain never blocks.
func spawn(ctx context.Context, f func() error) <-chan error {
	ch := make(chan error)
	go func() {
		err := f()
		select {
		case ch <- err:
		case <-ctx.Done():
		}
		close(ch)
	}()
	return ch
}

func main() {
	flag.Parse()
	if _, err := host.Init(); err != nil {
		log.Fatalf("init periph.io: %v", err)
	}

	counter, err := millis.New(1024, 125)
	if err != nil {
		log.Fatalf("init millisecond counter: %v", err)
	}

	hmReg, err := shiftreg.New(display.Width, outPin(*hmSerial), outPin(*hmClock), outPin(*hmLatch))
	if err != nil {
		log.Fatalf("init hours:minutes shift registers: %v", err)
	}
	secReg, err := shiftreg.New(display.Width, outPin(*secSerial), outPin(*secClock), outPin(*secLatch))
	if err != nil {
		log.Fatalf("init seconds shift registers: %v", err)
	}

	src, err := inputs.Open(inputs.Pins{
		Chip:         *inputChip,
		RotaryA:      *rotaryA,
		RotaryB:      *rotaryB,
		RotaryButton: *rotaryButton,
		SnoozeButton: *snoozePin,
	})
	if err != nil {
		log.Fatalf("init input capture: %v", err)
	}
	defer src.Close()

	bus, err := i2creg.Open(*i2cBus)
	if err != nil {
		log.Fatalf("open i2c bus %q: %v", *i2cBus, err)
	}
	defer bus.Close()
	clock := rtc.New(bus)

	oled, err := panel.New(bus)
	if err != nil {
		log.Fatalf("init status panel: %v", err)
	}

	alarmPin := outPin(*alarmLED)
	pmPin := outPin(*pmLED)
	buzzerPin := outPin(*buzzer)
	buzzerPin.Out(gpio.Low)

	if *setTime {
		now := time.Now()
		err := clock.SetTime(rtc.Time{
			Hours:     uint8(now.Hour()),
			Minutes:   uint8(now.Minute()),
			Seconds:   uint8(now.Second()),
			Day:       uint8(now.Day()),
			DayOfWeek: uint8(now.Weekday()),
			Month:     uint8(now.Month()),
			Year:      uint8(now.Year() - 2000),
		})
		if err != nil {
			log.Printf("set rtc from system clock: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cell := &display.Cell{}
	preview := &display.Preview{}
	hm := display.NewHoursMinutes(hmReg, cell, preview)
	seconds := display.NewSeconds(secReg, preview)
	encoder := controls.NewRotaryEncoder(src)
	snooze := controls.NewSnoozeButton(src)

	http.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/display.png", http.StatusFound)
	})
	http.Handle("/display.png", preview)
	http.Handle("/metrics", promhttp.Handler())

	httpServer := http.Server{Addr: *bind}
	httpDoneCh := spawn(ctx, func() error {
		log.Printf("http server listening on %s", httpServer.Addr)
		return httpServer.ListenAndServe()
	})
	millisDoneCh := spawn(ctx, func() error { return counter.Run(ctx) })
	displayDoneCh := spawn(ctx, func() error { return hm.Run(ctx) })
	loopDoneCh := spawn(ctx, func() error {
		return run(ctx, clock, cell, seconds, oled, encoder, snooze, alarmPin, pmPin, buzzerPin)
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	httpAlive := true
	select {
	case err := <-httpDoneCh:
		log.Printf("http server died: %v", err)
		httpAlive = false
	case err := <-millisDoneCh:
		log.Printf("millisecond counter died: %v", err)
	case err := <-displayDoneCh:
		log.Printf("display loop died: %v", err)
	case err := <-loopDoneCh:
		log.Printf("main loop died: %v", err)
	case <-sigCh:
		log.Printf("interrupt")
	}
	signal.Stop(sigCh)
	cancel()

	// Wait for the loops that write to the displays to wind down; one of
	// them could otherwise push a final frame after the blank and leave a
	// stale digit lit.
	<-displayDoneCh
	<-loopDoneCh

	// Blank everything on the way out, so someone looking at the clock can
	// tell whether the OS crashed or we just exited the program.
	blank := make([]gpio.Level, display.Width)
	hmReg.SetBitArray(blank)
	secReg.SetBitArray(blank)
	oled.Halt()
	buzzerPin.Out(gpio.Low)

	if httpAlive {
		tctx, c := context.WithTimeout(context.Background(), time.Second)
		httpServer.Shutdown(tctx)
		c()
	}
	log.Printf("exiting at %dms since boot", counter.Now())
}

// run is the cooperative main loop: poll the RTC, publish the digits, poll
// the controls, and redraw the slow displays when the second changes.
func run(ctx context.Context, clock *rtc.RTC, cell *display.Cell, seconds *display.Seconds, oled *panel.Panel, encoder *controls.RotaryEncoder, snooze *controls.SnoozeButton, alarmPin, pmPin, buzzerPin gpio.PinOut) error {
	events := trace.NewEventLog("clock", "mainloop")
	defer events.Finish()

	st := &state.State{}
	t := time.NewTicker(updateInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
		case <-ctx.Done():
			return fmt.Errorf("main loop: %w", ctx.Err())
		}

		// A failed RTC read keeps the previous digits; the displays show
		// slightly stale time until the bus recovers.
		now, digits, err := clock.ReadTime()
		if err != nil {
			events.Errorf("read rtc: %v", err)
			log.Printf("read rtc: %v", err)
		} else {
			lastDigits := st.Digits
			st.Time = now
			st.Digits = digits
			cell.Set(digits)

			if digits.Seconds != lastDigits.Seconds {
				if err := seconds.Display(digits); err != nil {
					return fmt.Errorf("render seconds: %w", err)
				}
				if err := oled.Show(st); err != nil {
					events.Errorf("redraw panel: %v", err)
				}
			}
		}

		encoder.Update()
		snooze.Update()
		if encoder.RotatedClockwise() {
			events.Printf("rotary: clockwise")
		} else if encoder.Button() {
			events.Printf("rotary: button")
		}
		if snooze.Pressed() {
			events.Printf("snooze pressed")
			// No alarm state machine yet; at least stop the noise.
			if err := buzzerPin.Out(gpio.Low); err != nil {
				log.Printf("silence buzzer: %v", err)
			}
		}

		if err := alarmPin.Out(gpio.Level(st.AlarmEnabled)); err != nil {
			return fmt.Errorf("set alarm led: %w", err)
		}
		if err := pmPin.Out(gpio.Level(st.PM())); err != nil {
			return fmt.Errorf("set pm led: %w", err)
		}
	}
}
