// Command contractpdf renders contracts from the command line.
//
//	contractpdf -o out.pdf --title "Contrato" contract.txt
//	contractpdf -o out.pdf --template canal --values input.json
//	contractpdf --extract documento.pdf
//	contractpdf -o all.pdf --merge a.pdf b.pdf
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/zeptools/gw-contracts/contracts"
	"github.com/zeptools/gw-contracts/extract"
	"github.com/zeptools/gw-contracts/pdfs"
)

const envPrefix = "CONTRACTPDF"

type options struct {
	Output   string
	Title    string
	Template string
	Values   string
	Logo     string
	Paper    string
	Footer   string
	Extract  bool
	Merge    bool
	Args     []string
}

// valuesFile is the --values input for catalog templates.
type valuesFile struct {
	Patient extract.Identity  `json:"patient"`
	Clinic  contracts.Clinic  `json:"clinic"`
	Values  map[string]string `json:"values"`
}

func main() {
	opts, err := loadOptions(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if err = run(opts, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
}

func loadOptions(args []string) (*options, error) {
	fs := pflag.NewFlagSet("contractpdf", pflag.ContinueOnError)
	fs.StringP("output", "o", "", "Output PDF file (default stdout)")
	fs.String("title", "", "Bold title on page 1")
	fs.String("template", "", "Catalog template key; content comes from the catalog")
	fs.String("values", "", "JSON file with patient, clinic and field values for --template")
	fs.String("logo", "", "Logo image for page 1")
	fs.String("paper", "A4", "Paper size: A4, Letter or Legal")
	fs.String("footer", pdfs.DefaultFooterFormat, "Footer format taking page and total")
	fs.Bool("extract", false, "Print the identity read from the PDF argument as JSON")
	fs.Bool("merge", false, "Concatenate the PDF arguments")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return &options{
		Output:   v.GetString("output"),
		Title:    v.GetString("title"),
		Template: v.GetString("template"),
		Values:   v.GetString("values"),
		Logo:     v.GetString("logo"),
		Paper:    v.GetString("paper"),
		Footer:   v.GetString("footer"),
		Extract:  v.GetBool("extract"),
		Merge:    v.GetBool("merge"),
		Args:     fs.Args(),
	}, nil
}

func run(opts *options, stdin io.Reader, stdout io.Writer) error {
	switch {
	case opts.Extract:
		return runExtract(opts, stdout)
	case opts.Merge:
		return runMerge(opts, stdout)
	}
	content, title, err := contentFor(opts, stdin)
	if err != nil {
		return err
	}
	paper, ok := pdfs.PaperSizeByName(opts.Paper)
	if !ok {
		return fmt.Errorf("unknown paper size %q", opts.Paper)
	}
	g := pdfs.DefaultGeometry()
	g.Paper = paper
	r := &pdfs.Renderer{Geometry: g, FooterFormat: opts.Footer}
	var logo *pdfs.LogoSpec
	if opts.Logo != "" {
		logo = &pdfs.LogoSpec{Path: opts.Logo}
	}
	res, err := r.Render(content, title, logo)
	if err != nil {
		return err
	}
	log.Printf("[INFO][PDF] rendered %d pages", res.Pages)
	return writeOutput(opts.Output, stdout, res.Bytes)
}

// contentFor returns the text to render: a filled catalog template or the input file.
func contentFor(opts *options, stdin io.Reader) (string, string, error) {
	if opts.Template == "" {
		var data []byte
		var err error
		switch len(opts.Args) {
		case 0:
			data, err = io.ReadAll(stdin)
		case 1:
			data, err = os.ReadFile(opts.Args[0])
		default:
			return "", "", errors.New("at most one input file")
		}
		return string(data), opts.Title, err
	}

	catalog, err := contracts.Load()
	if err != nil {
		return "", "", err
	}
	t, err := catalog.Get(opts.Template)
	if err != nil {
		keys := make([]string, 0, catalog.Len())
		for _, t := range catalog.List() {
			keys = append(keys, t.Key)
		}
		return "", "", fmt.Errorf("%w (known: %s)", err, strings.Join(keys, ", "))
	}
	var in valuesFile
	if opts.Values != "" {
		data, err := os.ReadFile(opts.Values)
		if err != nil {
			return "", "", err
		}
		if err = json.Unmarshal(data, &in); err != nil {
			return "", "", fmt.Errorf("%s: %w", opts.Values, err)
		}
	}
	content, err := t.Fill(in.Values, in.Patient, in.Clinic)
	if err != nil {
		return "", "", err
	}
	title := opts.Title
	if title == "" {
		title = t.Title
	}
	return content, title, nil
}

type extractOutput struct {
	Identity extract.Identity `json:"identity"`
	Missing  []string         `json:"missing,omitempty"`
}

func runExtract(opts *options, stdout io.Writer) error {
	if len(opts.Args) != 1 {
		return errors.New("--extract takes one PDF file")
	}
	data, err := os.ReadFile(opts.Args[0])
	if err != nil {
		return err
	}
	id, misses, err := extract.NewExtractor().FromPDF(data)
	if err != nil {
		return err
	}
	out := extractOutput{Identity: id}
	for _, m := range misses {
		out.Missing = append(out.Missing, m.Field)
	}
	if err = json.MarshalWrite(stdout, out, jsontext.WithIndent("  ")); err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout)
	return err
}

func runMerge(opts *options, stdout io.Writer) error {
	docs := make([][]byte, 0, len(opts.Args))
	for _, p := range opts.Args {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		docs = append(docs, data)
	}
	merged, err := pdfs.Merge(docs...)
	if err != nil {
		return err
	}
	return writeOutput(opts.Output, stdout, merged)
}

func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
