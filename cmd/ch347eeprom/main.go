// Command ch347eeprom scans an I2C bus, reads from or writes a file to an I2C
// memory through a CH347 USB bridge.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BertoldVdb/ch347eeprom/ch347"
	_ "github.com/BertoldVdb/ch347eeprom/ch347/ch347lib"
	"github.com/BertoldVdb/ch347eeprom/ch347/eepromsim"
	_ "github.com/BertoldVdb/ch347eeprom/ch347/i2cdev"
	_ "github.com/BertoldVdb/ch347eeprom/ch347/periphbus"
	"github.com/BertoldVdb/ch347eeprom/config"
	"github.com/BertoldVdb/ch347eeprom/eeprom"
	"github.com/BertoldVdb/ch347eeprom/hexgrid"
	"github.com/BertoldVdb/ch347eeprom/logrusconfig"
	"github.com/sirupsen/logrus"
)

const (
	exitOK = iota
	exitUsage
	exitOpen
	exitInit
	exitOperation
)

const imageDriver = "image"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	cfg    config.Config
	output string
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	configPath := fs.String("config", "", "TOML configuration file")
	driver := fs.String("driver", "ch347", "Bridge driver: ch347, i2cdev, periph or image. ch347 needs a build with -tags ch347lib")
	delay := fs.Duration("delay", eeprom.DefaultWriteDelay, "Delay after every page write")
	verify := fs.Bool("verify", false, "Read back and compare after writing")
	output := fs.String("o", "", "Also save read data to this file")
	loglevel := logrusconfig.InitParam(fs, logrus.InfoLevel)

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts := options{
		cfg:    config.Default(),
		output: *output,
	}
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return options{}, err
		}
		opts.cfg = cfg
	}

	var err error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "driver":
			opts.cfg.Driver = *driver
		case "delay":
			opts.cfg.WriteDelay = *delay
		case "verify":
			opts.cfg.Verify = *verify
		case "loglevel":
			opts.cfg.LogLevel, err = logrusconfig.Level(*loglevel)
		}
	})
	if err == nil && opts.cfg.WriteDelay < 0 {
		err = fmt.Errorf("delay cannot be negative")
	}

	return opts, err
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("ch347eeprom", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stdout, usageText)
		fmt.Fprintln(stdout, "Flags:")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		fs.SetOutput(stderr)
	}

	opts, err := parseFlags(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	} else if err != nil {
		fmt.Fprintf(stdout, "%v.\n", err)
		return exitUsage
	}
	cfg := opts.cfg

	log := logrusconfig.GetLogger(stderr, "ch347eeprom", cfg.LogLevel)

	req, err := parseArgs(fs.Args())
	if err == errUsage {
		fmt.Fprintln(stdout, usageText)
		return exitUsage
	} else if err != nil {
		fmt.Fprintf(stdout, "%v.\n", err)
		return exitUsage
	}

	prog := eeprom.New(nil, log.WithField("prefix", "eeprom"))
	prog.WriteDelay = cfg.WriteDelay

	var data []byte
	if req.op == opWrite {
		data, err = prog.Stage(req.file)
		if err != nil {
			fmt.Fprintf(stdout, "%v.\n", err)
			return exitUsage
		}
	}

	ch347.Unregister(imageDriver)
	if err := ch347.Register(imageDriver, eepromsim.Opener(cfg.Image)); err != nil {
		log.WithError(err).Error("Cannot register image driver")
		return exitOpen
	}
	defer ch347.Unregister(imageDriver)

	log.WithFields(logrus.Fields{"driver": cfg.Driver, "mode": req.mode}).Debug("Opening device")
	dev, err := ch347.Open(cfg.Driver, req.device)
	if err != nil {
		log.WithError(err).Error("CH347OpenDevice failed")
		fmt.Fprintf(stdout, "Open device %s failed.\n", req.device)
		return exitOpen
	}
	fmt.Fprintf(stdout, "Open device %s succeed, driver: %s\n", req.device, cfg.Driver)

	if setter, ok := dev.(ch347.LogSetter); ok {
		setter.SetLogger(log.WithField("prefix", cfg.Driver))
	}

	code := runOperation(ctx, dev, prog, cfg, opts.output, req, data, stdout, log)

	if err := dev.Close(); err != nil {
		log.WithError(err).Warn("Close failed")
		fmt.Fprintln(stdout, "Close device failed.")
	} else {
		fmt.Fprintln(stdout, "Close device succeed.")
	}

	return code
}

func runOperation(ctx context.Context, dev ch347.Device, prog *eeprom.Programmer, cfg config.Config, output string, req request, data []byte, stdout io.Writer, log *logrus.Entry) int {
	if err := dev.SetI2CMode(req.mode); err != nil {
		log.WithError(err).Error("CH347I2C_Set failed")
		fmt.Fprintln(stdout, "Failed to init I2C interface.")
		return exitInit
	}
	fmt.Fprintln(stdout, "CH347 I2C interface init succeed.")

	prog.SetDevice(dev)

	switch req.op {
	case opScan:
		start := time.Now()
		found, err := prog.Scan(ctx)
		if err != nil {
			fmt.Fprintf(stdout, "Scan interrupted: %v.\n", err)
			return exitOperation
		}
		log.Debugf("Scan took %v", time.Since(start))
		hexgrid.ScanTable(stdout, found)

	case opRead:
		result, err := prog.Read(ctx, req.target, req.address, req.length)
		if err != nil {
			fmt.Fprintf(stdout, "%v.\n", err)
			return exitOperation
		}
		hexgrid.Dump(stdout, result)

		if output != "" {
			if err := os.WriteFile(output, result, 0644); err != nil {
				fmt.Fprintf(stdout, "Failed to save data: %v.\n", err)
				return exitOperation
			}
		}

	case opWrite:
		if err := prog.Write(ctx, req.target, req.address, req.length, data); err != nil {
			fmt.Fprintf(stdout, "%v.\n", err)
			return exitOperation
		}
		if cfg.Verify {
			if err := prog.Verify(ctx, req.target, req.address, data); err != nil {
				fmt.Fprintf(stdout, "%v.\n", err)
				return exitOperation
			}
			fmt.Fprintln(stdout, "Verified.")
		}
		fmt.Fprintln(stdout, "Done.")
	}

	return exitOK
}
