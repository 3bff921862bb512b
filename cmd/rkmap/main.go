// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package main

import (
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/usedbytes/log"
	"github.com/usedbytes/rkmap/lib/capture"
	"github.com/usedbytes/rkmap/lib/catalog"
	"github.com/usedbytes/rkmap/lib/config"
	"github.com/usedbytes/rkmap/lib/keymap"
)

func loadProfile(ctx *cli.Context) (*config.Profile, error) {
	p := config.DefaultProfile()

	if ctx.IsSet("profile") {
		var err error
		p, err = config.LoadProfile(ctx.String("profile"))
		if err != nil {
			return nil, err
		}
		log.Verboseln(p)
	}

	if ctx.IsSet("order") {
		order, err := keymap.ParseByteOrder(ctx.String("order"))
		if err != nil {
			return nil, err
		}
		p.ByteOrder = order
	}

	return p, nil
}

func warnDiagnostics(name string, blob *capture.Blob) {
	for _, d := range blob.Diagnostics {
		log.Printf("WARNING: %s: %s\n", name, d)
	}
}

func decodeCapture(fname string) (*capture.Capture, *capture.Blob, error) {
	c, err := capture.Parse(fname)
	if err != nil {
		return nil, nil, err
	}

	blob := c.Reassemble()
	log.Verbosef("Blob:\n%s\n", hex.Dump(blob.Data))

	return c, blob, nil
}

// buildTable maps the catalog keys if there's a catalog, otherwise the
// profile's sample slots
func buildTable(p *config.Profile, catalogFile string, blob *capture.Blob) (*keymap.Table, error) {
	if len(catalogFile) == 0 {
		catalogFile = p.Catalog
	}

	if len(catalogFile) == 0 {
		return keymap.FromSlots(blob.Data, p.SampleSlots, p.ByteOrder), nil
	}

	cat, err := catalog.Parse(catalogFile)
	if err != nil {
		return nil, err
	}
	log.Verbosef("Catalog: %d keys, %d lines skipped\n", len(cat.Keys), cat.Skipped)

	t := keymap.FromCatalog(blob.Data, cat.Keys, p.ByteOrder)
	if len(t.Missing) != 0 {
		log.Verbosef("%d keys outside the blob: %v\n", len(t.Missing), t.Missing)
	}

	return t, nil
}

func decodeAction(ctx *cli.Context) error {
	if ctx.Args().Len() < 1 {
		cli.ShowAppHelp(ctx)
		return cli.Exit("CAPTURE_FILE is required", 2)
	} else if ctx.Args().Len() > 2 {
		return cli.Exit("too many arguments", 2)
	}

	p, err := loadProfile(ctx)
	if err != nil {
		return err
	}

	c, blob, err := decodeCapture(ctx.Args().Get(0))
	if err != nil {
		return err
	}

	log.Printf("Parsed %d buffers\n", len(c.Reports))
	warnDiagnostics(ctx.Args().Get(0), blob)
	log.Printf("Reconstructed %d bytes of key mapping data (buffer 0 header: %s)\n\n",
		len(blob.Data), blob.Header)

	t, err := buildTable(p, ctx.Args().Get(1), blob)
	if err != nil {
		return err
	}

	fmt.Print(t)

	return nil
}

func dumpAction(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return fmt.Errorf("CAPTURE_FILE is required")
	}
	fname := ctx.Args().First()

	_, blob, err := decodeCapture(fname)
	if err != nil {
		return err
	}
	warnDiagnostics(fname, blob)

	out := ctx.String("out")
	if len(out) == 0 {
		out = fname + ".blob.bin"
	}

	err = ioutil.WriteFile(out, blob.Data, 0644)
	if err != nil {
		return errors.Wrap(err, "Writing blob")
	}
	log.Printf("Wrote %d bytes (crc 0x%04x) to %s\n", len(blob.Data), blob.Fingerprint(), out)

	return nil
}

func exportBlob(p *config.Profile, catalogFile, fname, out string, blob *capture.Blob) (string, error) {
	t, err := buildTable(p, catalogFile, blob)
	if err != nil {
		return "", err
	}

	if len(out) == 0 {
		out = p.ExportFilename(fname, blob.Fingerprint())
	}

	err = t.WriteTOML(out, filepath.Base(fname), blob)
	if err != nil {
		return "", err
	}

	return out, nil
}

func exportAction(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return fmt.Errorf("CAPTURE_FILE is required")
	}
	fname := ctx.Args().First()

	p, err := loadProfile(ctx)
	if err != nil {
		return err
	}

	_, blob, err := decodeCapture(fname)
	if err != nil {
		return err
	}
	warnDiagnostics(fname, blob)

	out, err := exportBlob(p, ctx.String("catalog"), fname, ctx.String("out"), blob)
	if err != nil {
		return err
	}

	log.Println("Wrote", out)

	return nil
}

func batchAction(ctx *cli.Context) error {
	if ctx.Args().Len() < 1 {
		return fmt.Errorf("at least one CAPTURE_FILE is required")
	}

	p, err := loadProfile(ctx)
	if err != nil {
		return err
	}

	dir := ctx.String("dir")
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	type result struct {
		fname string
		out   string
		blob  *capture.Blob
		err   error
	}
	var results []result

	// Warnings are held back until the bar is done
	bar := pb.StartNew(ctx.Args().Len())
	for _, fname := range ctx.Args().Slice() {
		r := result{fname: fname}

		_, r.blob, r.err = decodeCapture(fname)
		if r.err == nil {
			out := filepath.Join(dir, p.ExportFilename(fname, r.blob.Fingerprint()))
			r.out, r.err = exportBlob(p, ctx.String("catalog"), fname, out, r.blob)
		}

		results = append(results, r)
		bar.Increment()
	}
	bar.Finish()

	failed := 0
	for _, r := range results {
		if r.blob != nil {
			warnDiagnostics(r.fname, r.blob)
		}

		if r.err != nil {
			log.Printf("%s: FAILED: %v\n", r.fname, r.err)
			failed++
			continue
		}
		log.Printf("%s -> %s\n", r.fname, r.out)
	}

	if failed != 0 {
		return cli.Exit(fmt.Sprintf("%d of %d captures failed", failed, len(results)), 1)
	}

	return nil
}

func profileInitAction(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return fmt.Errorf("PROFILE_FILE is required")
	}

	p, err := loadProfile(ctx)
	if err != nil {
		return err
	}
	if ctx.IsSet("name") {
		p.Name = ctx.String("name")
	}

	return p.WriteTOML(ctx.Args().First())
}

func profileShowAction(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return fmt.Errorf("PROFILE_FILE is required")
	}

	p, err := config.LoadProfile(ctx.Args().First())
	if err != nil {
		return err
	}

	fmt.Print(p)

	return nil
}

func catalogFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "catalog",
		Aliases:  []string{"c"},
		Usage:    "KB.ini key catalog, overrides the profile's",
		Required: false,
	}
}

func newApp() *cli.App {
	app := &cli.App{
		Name:      "rkmap",
		Usage:     "Decode RK keyboard key mapping captures into firmware codes",
		ArgsUsage: "CAPTURE_FILE [CATALOG_FILE]",
		Action:    decodeAction,
		// Just ignore errors - we'll handle them ourselves in main()
		ExitErrHandler: func(c *cli.Context, e error) {},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:     "verbose",
				Aliases:  []string{"v"},
				Usage:    "Enable more output",
				Required: false,
				Value:    false,
			},
			&cli.StringFlag{
				Name:     "order",
				Aliases:  []string{"o"},
				Usage:    "Firmware code byte order: big or little (the device's order is unconfirmed)",
				Required: false,
				Value:    string(keymap.DefaultByteOrder),
			},
			&cli.StringFlag{
				Name:     "profile",
				Aliases:  []string{"p"},
				Usage:    "TOML decode profile",
				Required: false,
			},
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "dump",
			Usage:     "Write the reassembled configuration blob to a file",
			ArgsUsage: "CAPTURE_FILE",
			Action:    dumpAction,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "out",
					Usage:    "Output file (default CAPTURE_FILE.blob.bin)",
					Required: false,
				},
			},
		},
		{
			Name:      "export",
			Usage:     "Write the key mapping as TOML, with the blob alongside",
			ArgsUsage: "CAPTURE_FILE",
			Action:    exportAction,
			Flags: []cli.Flag{
				catalogFlag(),
				&cli.StringFlag{
					Name:     "out",
					Usage:    "Output TOML file (default generated from the profile and capture names)",
					Required: false,
				},
			},
		},
		{
			Name:      "batch",
			Usage:     "Export many captures",
			ArgsUsage: "CAPTURE_FILE...",
			Action:    batchAction,
			Flags: []cli.Flag{
				catalogFlag(),
				&cli.StringFlag{
					Name:     "dir",
					Aliases:  []string{"d"},
					Usage:    "Output directory",
					Required: false,
					Value:    ".",
				},
			},
		},
		{
			Name: "profile",
			Subcommands: []*cli.Command{
				{
					Name:      "init",
					Usage:     "Write a profile using the current settings",
					ArgsUsage: "PROFILE_FILE",
					Action:    profileInitAction,
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:     "name",
							Usage:    "Keyboard name",
							Required: false,
						},
					},
				},
				{
					Name:      "show",
					ArgsUsage: "PROFILE_FILE",
					Action:    profileShowAction,
				},
			},
		},
	}

	app.Before = func(ctx *cli.Context) error {
		log.SetUseLog(false)

		log.SetVerbose(ctx.Bool("verbose"))
		log.Verboseln("Extra output enabled.")
		return nil
	}

	return app
}

func main() {
	app := newApp()

	err := app.Run(os.Args)
	if err != nil {
		log.Println("ERROR:", err)
		if v, ok := err.(cli.ExitCoder); ok {
			os.Exit(v.ExitCode())
		} else {
			os.Exit(1)
		}
	}
}
