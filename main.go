package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

var Version = "dev"

type Options struct {
	Image     string
	ImageType string
	Output    string
	Dims      Dimensions
	Scan      string
	Verify    bool
	JSON      bool
	Quiet     bool
	Debug     bool
	Version   bool
}

type FinalOutput struct {
	Status         string        `json:"status"`
	Input          string        `json:"input"`
	Output         string        `json:"output"`
	Scan           string        `json:"scan"`
	MarkerPosition int           `json:"marker_position"`
	HeightBefore   uint16        `json:"height_before"`
	WidthBefore    uint16        `json:"width_before"`
	Height         uint16        `json:"height"`
	Width          uint16        `json:"width"`
	Size           int           `json:"size_bytes"`
	ExecutionTime  string        `json:"execution_time"`
	Verification   *Verification `json:"verification,omitempty"`
}

// uint16Flag is an optional 16-bit flag; v stays nil until the flag is set.
type uint16Flag struct {
	v *uint16
}

func (f *uint16Flag) String() string {
	if f == nil || f.v == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*f.v), 10)
}

func (f *uint16Flag) Set(s string) error {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return fmt.Errorf("expected a value between 0 and 65535")
	}
	v := uint16(n)
	f.v = &v
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// parseArgs accepts flags before and after the positional image path.
func parseArgs(args []string, cfg Config, stderr io.Writer) (Options, error) {
	opts := Options{}
	var height, width uint16Flag

	fs := flag.NewFlagSet("jpeg-redim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] <image>\n", fs.Name())
		fs.PrintDefaults()
	}

	for _, name := range []string{"t", "image-type"} {
		fs.StringVar(&opts.ImageType, name, cfg.ImageType, "Image type: jpg or png (png is not implemented)")
	}
	for _, name := range []string{"o", "output"} {
		fs.StringVar(&opts.Output, name, "", "Destination file (default <input>_modified.<ext>)")
	}
	for _, name := range []string{"H", "height"} {
		fs.Var(&height, name, "Override the frame height")
	}
	for _, name := range []string{"W", "width"} {
		fs.Var(&width, name, "Override the frame width")
	}
	fs.StringVar(&opts.Scan, "scan", cfg.Scan, "Marker search: bytes or segments")
	fs.BoolVar(&opts.Verify, "verify", cfg.Verify, "Decode the result and report the header and butteraugli distance")
	fs.BoolVar(&opts.JSON, "json", cfg.JSON, "Print a JSON report")
	fs.BoolVar(&opts.Quiet, "quiet", cfg.Quiet, "Quiet mode")
	fs.BoolVar(&opts.Debug, "debug", false, "Debug mode")
	fs.BoolVar(&opts.Version, "version", false, "Show version")

	var positional []string
	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return opts, err
		}
		rest = fs.Args()
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		rest = rest[1:]
	}

	if len(positional) > 1 {
		return opts, fmt.Errorf("expected one image path, got %d", len(positional))
	}
	if len(positional) == 1 {
		opts.Image = positional[0]
	}
	opts.Dims = Dimensions{Height: height.v, Width: width.v}
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, loadConfig(), stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if opts.Version {
		fmt.Fprintf(stdout, "jpeg-redim.go version %s\n", Version)
		return 0
	}
	if opts.Image == "" {
		fmt.Fprintf(stderr, "Error: the image argument is required\n")
		return 1
	}

	switch opts.ImageType {
	case "png":
		if !opts.Quiet {
			fmt.Fprintln(stdout, "PNG image support is not implemented yet")
		}
		return 0
	case "jpg":
	default:
		if !opts.Quiet {
			fmt.Fprintf(stdout, "Unknown image type: %s\n", opts.ImageType)
		}
		return 0
	}

	// Only the jpg path reads the scan mode.
	switch opts.Scan {
	case scanBytes, scanSegments:
	default:
		fmt.Fprintf(stderr, "Error: invalid scan mode '%s' (use bytes or segments)\n", opts.Scan)
		return 1
	}

	out, err := modifyJPEG(opts, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, describeError(err))
		return 1
	}

	if opts.JSON {
		return printReport(out, stdout, stderr)
	}
	return 0
}

func printReport(out FinalOutput, stdout, stderr io.Writer) int {
	jsonBytes, err := json.Marshal(out)
	if err != nil {
		fmt.Fprintf(stderr, "Error while encoding the report: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, string(jsonBytes))
	return 0
}

func modifyJPEG(opts Options, stdout, stderr io.Writer) (FinalOutput, error) {
	startTime := time.Now()
	progress := stdout
	if opts.Quiet || opts.JSON {
		progress = io.Discard
	}
	debugf := func(format string, a ...any) {
		if opts.Debug {
			fmt.Fprintf(stderr, "[DEBUG] "+format+"\n", a...)
		}
	}

	localStart := time.Now()
	buffer, srcInfo, err := readImage(opts.Image)
	if err != nil {
		return FinalOutput{}, err
	}
	debugf("read %s (%d bytes) duration=%s", opts.Image, len(buffer), time.Since(localStart).Round(time.Millisecond))

	var original []byte
	if opts.Verify {
		original = append([]byte(nil), buffer...)
	}

	locate := locateSOF0
	if opts.Scan == scanSegments {
		locate = locateSOF0Segments
	}
	position, err := locate(buffer)
	if err != nil {
		return FinalOutput{}, &opError{opLocate, err}
	}
	fmt.Fprintf(progress, "Found the marker at position %d\n", position)

	frame, err := patchDimensions(buffer, position, opts.Dims)
	if err != nil {
		return FinalOutput{}, &opError{opPatch, err}
	}
	debugf("height %d -> %d, width %d -> %d", frame.HeightBefore, frame.Height, frame.WidthBefore, frame.Width)

	target := outputPath(opts.Image, opts.Output)
	localStart = time.Now()
	if err := writeImage(target, buffer, opts.Output != ""); err != nil {
		return FinalOutput{}, err
	}
	if err := keepMode(target, srcInfo.Mode()); err != nil {
		debugf("keeping mode %s on %s: %v", srcInfo.Mode().Perm(), target, err)
	}
	debugf("write %s duration=%s", target, time.Since(localStart).Round(time.Millisecond))
	fmt.Fprintf(progress, "Wrote %s (%dx%d, was %dx%d)\n", target, frame.Width, frame.Height, frame.WidthBefore, frame.HeightBefore)

	status := "SUCCESS"
	if !frame.Changed() {
		status = "UNCHANGED"
	}
	out := FinalOutput{
		Status:         status,
		Input:          opts.Image,
		Output:         target,
		Scan:           opts.Scan,
		MarkerPosition: frame.Position,
		HeightBefore:   frame.HeightBefore,
		WidthBefore:    frame.WidthBefore,
		Height:         frame.Height,
		Width:          frame.Width,
		Size:           len(buffer),
	}

	if opts.Verify {
		localStart = time.Now()
		v := verifyPatch(original, buffer, frame)
		debugf("verify duration=%s", time.Since(localStart).Round(time.Millisecond))
		out.Verification = &v
		switch {
		case v.Err != "":
			fmt.Fprintf(progress, "Verify: %s\n", v.Err)
		default:
			fmt.Fprintf(progress, "Verify: header %dx%d (match=%t), butteraugli %.4f\n",
				v.HeaderWidth, v.HeaderHeight, v.HeaderMatch, v.Butteraugli)
		}
	}

	out.ExecutionTime = time.Since(startTime).Round(time.Millisecond).String()
	return out, nil
}

func describeError(err error) string {
	var opErr *opError
	if !errors.As(err, &opErr) {
		return fmt.Sprintf("Error: %v", err)
	}
	switch opErr.Op {
	case opOpen:
		return fmt.Sprintf("Error while opening the file: %v", opErr.Err)
	case opRead:
		return fmt.Sprintf("Error while reading the file: %v", opErr.Err)
	case opLocate:
		return fmt.Sprintf("Error while finding the marker: %v", opErr.Err)
	case opPatch:
		return fmt.Sprintf("Error while patching the frame header: %v", opErr.Err)
	case opCreate:
		return fmt.Sprintf("Error while creating the output file: %v", opErr.Err)
	case opWrite:
		return fmt.Sprintf("Error while writing the output file: %v", opErr.Err)
	}
	return fmt.Sprintf("Error: %v", err)
}
