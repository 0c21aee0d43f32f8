// soldump inspects the local shared object database a player writes.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	goccy "github.com/goccy/go-json"
	"github.com/pkg/errors"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/kestrel/config"
	"github.com/chazu/kestrel/lso"
)

func main() {
	configPath := flag.String("config", "", "Path to kestrel.toml (default: search upward from the working directory)")
	dbPath := flag.String("db", "", "Shared object database (overrides the configured path)")
	name := flag.String("name", "", "Shared object name to export (default: all)")
	root := flag.String("root", "/", "Local path the shared object was stored under")
	list := flag.Bool("list", false, "List stored records instead of exporting them")
	asJSON := flag.Bool("json", false, "With -list, print the listing as JSON")
	remove := flag.Bool("delete", false, "Delete the record named by -name and -root")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: soldump [options]\n\n")
		fmt.Fprintf(os.Stderr, "Prints local shared objects as JSON.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  soldump -list                          # Show every record\n")
		fmt.Fprintf(os.Stderr, "  soldump -name prefs -root /movies/a.swf # Export one record\n")
		fmt.Fprintf(os.Stderr, "  soldump -db ./lso.db                   # Export everything in a database\n")
	}
	flag.Parse()

	opts := options{
		configPath: *configPath,
		dbPath:     *dbPath,
		name:       *name,
		root:       *root,
		list:       *list,
		asJSON:     *asJSON,
		remove:     *remove,
	}
	if err := run(os.Stdout, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	dbPath     string
	name       string
	root       string
	list       bool
	asJSON     bool
	remove     bool
}

func run(w io.Writer, opts options) error {
	c, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	c.ConfigureLogging()

	dbPath := opts.dbPath
	if dbPath == "" {
		dbPath = c.SharedObjectsPath()
	}
	if _, err := os.Stat(dbPath); err != nil {
		return errors.Wrapf(err, "no shared object database at %s", dbPath)
	}

	lib, err := lso.Open(dbPath)
	if err != nil {
		return err
	}
	defer lib.Close()

	switch {
	case opts.remove:
		if opts.name == "" {
			return errors.New("-delete needs -name")
		}
		return lib.Delete(opts.name, opts.root)
	case opts.list:
		return printList(w, lib, opts.asJSON)
	default:
		root := opts.root
		if opts.name == "" {
			root = ""
		}
		return lib.ExportJSON(w, opts.name, root)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	c, err := config.FindAndLoad(".")
	if errors.Is(err, config.ErrNotFound) {
		c = config.Default()
		if c.Dir, err = os.Getwd(); err != nil {
			return nil, errors.Wrap(err, "resolving working directory")
		}
	}
	return c, err
}

func printList(out io.Writer, lib *lso.Library, asJSON bool) error {
	entries, err := lib.List()
	if err != nil {
		return err
	}
	if asJSON {
		data, err := goccy.MarshalIndent(entries, "", "  ")
		if err != nil {
			return errors.Wrap(err, "encoding listing")
		}
		_, err = out.Write(append(data, '\n'))
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ROOT\tNAME\tSIZE\tMODIFIED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", e.Root, e.Name, e.Size, e.Modified.Format(time.RFC3339))
	}
	return w.Flush()
}
