package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"syscall"
	"time"

	d2r2log "github.com/d2r2/go-logger"

	"github.com/aluedtke7/chardisplay/display"
	"github.com/aluedtke7/chardisplay/hd44780"
	"github.com/aluedtke7/chardisplay/lcd"
	"github.com/aluedtke7/chardisplay/marquee"
	"github.com/aluedtke7/chardisplay/parallel"
	"github.com/aluedtke7/chardisplay/script"
	"github.com/aluedtke7/chardisplay/sim"
	"github.com/aluedtke7/chardisplay/telemetry"
	"github.com/aluedtke7/go-dht"
	"github.com/antigloss/go/logger"
	"periph.io/x/host/v3"
)

var (
	simPtr         *bool
	parallelPtr    *bool
	pinsPtr        *string
	colsPtr        *int
	rowsPtr        *int
	addrPtr        *int
	lcdDelayPtr    *int
	scrollSpeedPtr *int
	cyclePtr       *int
	dhtPinPtr      *int
	listenPtr      *string
	disp           *display.Locked
	stats          *telemetry.Display
	lines          *marquee.Marquee
	simCtrl        *sim.Controller
	statusMutex    = &sync.Mutex{}
	ipAddress      string
	homePath       string
	isAlive        bool
	cycleUpdate    string
	freeText       string
	backlightOn    bool
	lg             = d2r2log.NewPackageLogger("main", d2r2log.InfoLevel)
)

const (
	ROW_CLOCK        = 0
	ROW_IP           = 1
	ROW_SENSOR       = 2
	ROW_TEXT         = 3
	DHT_RETRIES      = 15
	DATE_TIME_FORMAT = "2006-01-02 15:04:05"
	CLOCK_FORMAT     = "02.01. 15:04"
	DEFAULT_PINS     = "GPIO4,GPIO17,GPIO25,GPIO22,GPIO23,GPIO24"
)

type info struct {
	Update       string   `json:"update"`
	IPAddress    string   `json:"ip_address"`
	Cols         uint8    `json:"cols"`
	Rows         uint8    `json:"rows"`
	Text         string   `json:"text"`
	Backlight    bool     `json:"backlight"`
	Calls        int64    `json:"calls"`
	Errors       int64    `json:"errors"`
	NotSupported int64    `json:"not_supported"`
	Reconnects   int64    `json:"reconnects"`
	Screen       []string `json:"screen,omitempty"`
}

type textRequest struct {
	Row    uint8  `json:"row"`
	Text   string `json:"text"`
	Scroll bool   `json:"scroll"`
}

type backlightRequest struct {
	Enabled bool `json:"enabled"`
}

// helper for error checking
func check(err error) {
	if err != nil {
		lg.Error(errors.Unwrap(fmt.Errorf("wrapped error: %w", err)).Error())
	}
}

// round float32 to N digits precision
func roundFloat32(val float32, precision uint) float32 {
	ratio := math.Pow(10, float64(precision))
	return float32(math.Round(float64(val)*ratio) / ratio)
}

// limits a commandline value to the given range
func clamp(val *int, min, max int) {
	if *val < min {
		*val = min
	}
	if *val > max {
		*val = max
	}
}

// limits the display size to what the controller can address, displays with
// more than two rows have at most 20 columns
func clampGeometry(cols, rows *int, minRows int) {
	clamp(rows, minRows, 4)
	maxCols := hd44780.LineLength
	if *rows > 2 {
		maxCols = hd44780.LineLength / 2
	}
	clamp(cols, 8, maxCols)
}

// logs the ipv4 addresses found and stores the first non localhost addresses in variable 'ipAddress'
func logNetworkInterfaces() {
	interfaces, err := net.Interfaces()
	if err != nil {
		logger.Error(err.Error())
		return
	}
	reg := regexp.MustCompilePOSIX("^((25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])\\.){3}(25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])")
	for _, i := range interfaces {
		addresses, err := i.Addrs()
		if err != nil {
			logger.Warn(err.Error())
			continue
		}
		for _, v := range addresses {
			ipv4 := v.String()
			if reg.MatchString(ipv4) {
				logger.Info(ipv4)
				if !strings.HasPrefix(ipv4, "127.0.") {
					ipAddress = strings.SplitN(ipv4, "/", 2)[0]
				}
			}
		}
	}
}

func getHomeDir() string {
	usr, err := user.Current()
	if err != nil {
		return "~/"
	}
	return usr.HomeDir
}

// prints a line if the display has the row
func printLine(row uint8, text string, scroll bool) {
	_, rows := disp.Size()
	if row >= rows {
		return
	}
	check(lines.PrintLine(row, strings.TrimSpace(text), scroll))
}

// opens the display selected by the commandline parameters
func openDisplay() (display.CharacterDisplay, io.Closer, error) {
	cols, rows := uint8(*colsPtr), uint8(*rowsPtr)
	switch {
	case *simPtr:
		d, c, err := sim.NewDisplay(cols, rows)
		if err != nil {
			return nil, nil, err
		}
		simCtrl = c
		return d, nil, d.Reset()
	case *parallelPtr:
		if _, err := host.Init(); err != nil {
			return nil, nil, err
		}
		names := strings.Split(*pinsPtr, ",")
		if len(names) < 6 {
			return nil, nil, fmt.Errorf("need at least 6 pins (RS,E,D4,D5,D6,D7[,BL]), got %q", *pinsPtr)
		}
		pn := parallel.PinNames{RS: names[0], E: names[1], D4: names[2], D5: names[3], D6: names[4], D7: names[5]}
		if len(names) > 6 {
			pn.Backlight = names[6]
		}
		pins, err := parallel.PinsByName(pn)
		if err != nil {
			return nil, nil, err
		}
		ctrl, err := parallel.New(pins, rows)
		if err != nil {
			return nil, nil, err
		}
		d, err := hd44780.New(ctrl, cols, rows)
		if err != nil {
			return nil, nil, err
		}
		return d, nil, d.Reset()
	}
	opts := lcd.DefaultOpts
	opts.Addr = uint8(*addrPtr)
	opts.Cols = cols
	opts.Rows = rows
	opts.InitDelay = time.Duration(*lcdDelayPtr) * time.Second
	l, err := lcd.New(opts)
	if err != nil {
		return nil, nil, err
	}
	return l, l, nil
}

// builds the display stack: counters, locking and the scrolling lines
func setupDisplay(base display.CharacterDisplay, name string, scrollSpeed time.Duration) {
	stats = telemetry.Instrument(base, name)
	disp = display.NewLocked(stats)
	lines = marquee.New(disp, scrollSpeed)
}

func setBacklight(on bool) error {
	err := disp.SetBacklightEnabled(on)
	if err == nil {
		statusMutex.Lock()
		backlightOn = on
		statusMutex.Unlock()
	}
	return err
}

func readSensor() string {
	t, h, retried, err := dht.ReadDHTxxWithRetry(dht.DHT22, *dhtPinPtr, false, DHT_RETRIES)
	if err != nil {
		logger.Warnf("DHT22 on pin %d: %s", *dhtPinPtr, err)
		return fmt.Sprintf("Sensor: retried %d", retried)
	}
	t = roundFloat32(t, 1)
	h = roundFloat32(h, 1)
	lg.Infof("Temperature =%5.1f°C, Humidity =%5.1f%% (retried %d times)", t, h, retried)
	return fmt.Sprintf("%.1f°C %.1f%%", t, h)
}

func currentInfo() info {
	cols, rows := disp.Size()
	s := stats.Snapshot()
	tot := s.Totals()
	statusMutex.Lock()
	inf := info{
		Update:       cycleUpdate,
		IPAddress:    ipAddress,
		Cols:         cols,
		Rows:         rows,
		Text:         freeText,
		Backlight:    backlightOn,
		Calls:        tot.Calls,
		Errors:       tot.Errors,
		NotSupported: tot.NotSupported,
		Reconnects:   s.Reconnects,
	}
	statusMutex.Unlock()
	if simCtrl != nil {
		inf.Screen = simCtrl.Lines()
	}
	return inf
}

func httpError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, display.ErrOutOfRange) || errors.Is(err, display.ErrInvalidArgument) ||
		errors.Is(err, script.ErrUnknownOp) {
		status = http.StatusBadRequest
	} else if errors.Is(err, display.ErrNotSupported) {
		status = http.StatusNotImplemented
	}
	http.Error(w, err.Error(), status)
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()

	// data in JSON format
	mux.HandleFunc("/info", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			http.Error(w, "GET only", http.StatusMethodNotAllowed)
			return
		}
		j, _ := json.MarshalIndent(currentInfo(), "", "  ")
		_, _ = w.Write(j)
	})

	// POST handler for the free text row
	mux.HandleFunc("/text", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		lg.Info("POST /text called")
		tr := &textRequest{Row: ROW_TEXT}
		if err := json.NewDecoder(req.Body).Decode(tr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := lines.PrintLine(tr.Row, tr.Text, tr.Scroll); err != nil {
			httpError(w, err)
			return
		}
		if tr.Row == ROW_TEXT {
			statusMutex.Lock()
			freeText = tr.Text
			statusMutex.Unlock()
		}
		j, _ := json.MarshalIndent(tr, "", "  ")
		_, _ = w.Write(j)
	})

	mux.HandleFunc("/backlight", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		br := &backlightRequest{}
		if err := json.NewDecoder(req.Body).Decode(br); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := setBacklight(br.Enabled); err != nil {
			httpError(w, err)
			return
		}
		j, _ := json.MarshalIndent(br, "", "  ")
		_, _ = w.Write(j)
	})

	// runs a YAML script, no other output reaches the display meanwhile
	mux.HandleFunc("/script", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(req.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s, err := script.Parse(body)
		if err != nil {
			httpError(w, err)
			return
		}
		lg.Infof("POST /script called with %d steps", len(s.Steps))
		err = disp.Do(func(d display.CharacterDisplay) error {
			return s.Run(req.Context(), d)
		})
		if err != nil {
			httpError(w, err)
			return
		}
		_, _ = fmt.Fprintf(w, "%d steps done\n", len(s.Steps))
	})
	return mux
}

func main() {
	defer func() {
		_ = d2r2log.FinalizeLogger()
	}()
	isAlive = false
	cycleUpdate = "---"

	homePath = filepath.Join(getHomeDir(), ".chardisplay")
	_ = os.MkdirAll(homePath, os.ModePerm)
	config := logger.Config{
		LogDir:            filepath.Join(homePath, "log"),
		LogFileMaxSize:    2,
		LogFileMaxNum:     30,
		LogFileNumToDel:   3,
		LogDest:           logger.LogDestBoth,
		LogFilenamePrefix: "chd",
		LogSymlinkPrefix:  "chd",
		Flag:              logger.ControlFlagLogDate | logger.ControlFlagLogFuncName,
	}
	_ = logger.Init(&config)
	defer func() {
		if err := recover(); err != nil {
			logger.Error("Panic occurred:", err)
		}
	}()
	logger.Info("Starting Character Display...")

	_ = d2r2log.ChangePackageLogLevel("dht", d2r2log.ErrorLevel)

	// Commandline parameters
	simPtr = flag.Bool("sim", false, "use a simulated display, the content is logged")
	parallelPtr = flag.Bool("parallel", false, "display is connected to GPIO pins instead of an I2C backpack")
	pinsPtr = flag.String("pins", DEFAULT_PINS, "GPIO names RS,E,D4,D5,D6,D7[,backlight] for -parallel")
	colsPtr = flag.Int("cols", 20, "number of columns (8...40, 8...20 with more than 2 rows)")
	rowsPtr = flag.Int("rows", 4, "number of rows (1...4, 2...4 with the I2C backpack)")
	addrPtr = flag.Int("addr", 0x27, "I2C address of the backpack")
	lcdDelayPtr = flag.Int("lcdDelay", 3, "initial delay for LCD in s (1s...10s)")
	scrollSpeedPtr = flag.Int("scrollSpeed", 500, "scroll speed in ms (100ms...10000ms)")
	cyclePtr = flag.Int("cycle", 15, "update cycle in s (1s...600s)")
	dhtPinPtr = flag.Int("dhtPin", 0, "GPIO number of a DHT22 sensor, 0 = no sensor")
	listenPtr = flag.String("listen", ":8080", "address of the http server")
	flag.Parse()
	minRows := 1
	if !*simPtr && !*parallelPtr {
		// the I2C backpack library always sets up two memory lines
		minRows = 2
	}
	clampGeometry(colsPtr, rowsPtr, minRows)
	clamp(lcdDelayPtr, 1, 10)
	clamp(scrollSpeedPtr, 100, 10000)
	clamp(cyclePtr, 1, 600)

	base, closer, err := openDisplay()
	if err != nil {
		logger.Errorf("Couldn't initialize display: %s", err)
		os.Exit(1)
	}
	setupDisplay(base, fmt.Sprintf("%#x", *addrPtr), time.Duration(*scrollSpeedPtr)*time.Millisecond)
	if err = setBacklight(true); err != nil && !errors.Is(err, display.ErrNotSupported) {
		check(err)
	}
	logNetworkInterfaces()
	logger.Infof("IP address: %s", ipAddress)
	printLine(ROW_CLOCK, "Starting...", false)
	printLine(ROW_IP, ipAddress, false)

	var ctrlChan = make(chan os.Signal, 1)
	signal.Notify(ctrlChan, os.Interrupt, syscall.SIGTERM)
	// this goroutine is waiting for being stopped
	go func() {
		<-ctrlChan
		logger.Info("Ctrl+C received... Exiting")
		lines.Stop()
		check(disp.Clear())
		if closer != nil {
			check(closer.Close())
		}
		os.Exit(1)
	}()

	// load InfluxDB settings from environment
	var reporter *telemetry.InfluxReporter
	if url, ok := os.LookupEnv("INFLUX_SRV_URL"); ok {
		token, _ := os.LookupEnv("INFLUX_LCD_TOKEN")
		logger.Infof("Influx srv url: %s", url)
		reporter = telemetry.NewInfluxReporter(url, token, "privat", "lcd")
		defer reporter.Close()
	}

	go func() {
		log.Fatal(http.ListenAndServe(*listenPtr, newMux()))
	}()

	for {
		alive := " "
		if isAlive {
			alive = "*"
		}
		isAlive = !isAlive
		printLine(ROW_CLOCK, time.Now().Format(CLOCK_FORMAT)+" "+alive, false)
		printLine(ROW_IP, ipAddress, true)
		if *dhtPinPtr > 0 {
			printLine(ROW_SENSOR, readSensor(), false)
		}
		if reporter != nil {
			if err := reporter.Report(context.Background(), stats.Snapshot()); err != nil {
				logger.Error(err)
			}
		}
		if simCtrl != nil {
			logger.Info("\n" + simCtrl.String())
		}
		statusMutex.Lock()
		cycleUpdate = time.Now().Format(DATE_TIME_FORMAT)
		statusMutex.Unlock()
		time.Sleep(time.Duration(*cyclePtr) * time.Second)
	}
}
