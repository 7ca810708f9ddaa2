package main

import (
	"fmt"
	"io"
	"os"

	"github.com/foomo/grabber/config"
	"github.com/foomo/grabber/decoder"
	"github.com/foomo/grabber/logger"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewDecodeCmd creates the decode command.
func NewDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Normalize an html document",
		Long: `Decode rewrites an html document or fragment: unwanted tags and attributes
are removed, tag names are kept and every class is replaced with a name
derived from the element's ancestry. The result is printed minified,
beautified or as a json tree.

Reads from stdin when no file is given.

Examples:
  grabber decode page.html
  curl -s https://example.com | grabber decode --beautify
  grabber decode --json --config grabber.yaml page.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDecodeCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Print the normalized tree as json")
	cmd.Flags().BoolP("beautify", "b", false, "Print one node per line")
	cmd.Flags().BoolP("dump", "d", false, "Also write the result to the configured dump file")
	cmd.Flags().StringP("config", "c", "", "Grabber config file to take the decoder tables from")

	return cmd
}

func runDecodeCmd(cmd *cobra.Command, args []string) error {
	src, errRead := readSource(cmd, args)
	if errRead != nil {
		return errRead
	}
	configFile, _ := cmd.Flags().GetString("config")
	decoderConfig, errConfig := loadDecoderConfig(configFile)
	if errConfig != nil {
		return fmt.Errorf("configuration error: %w", errConfig)
	}

	level := "warn"
	if getVerboseFlag(cmd) {
		level = "debug"
	}
	l, errLogger := logger.New(config.Log{
		Level:   level,
		Console: config.LogConsole{Enabled: true, Format: logger.FormatConsole},
	})
	if errLogger != nil {
		return errLogger
	}
	defer func() { _ = l.Sync() }()

	d := decoder.New(decoderConfig, decoder.WithLogger(l))

	asJSON, _ := cmd.Flags().GetBool("json")
	beautify, _ := cmd.Flags().GetBool("beautify")
	dump, _ := cmd.Flags().GetBool("dump")

	var out string
	var errDecode error
	if asJSON {
		out, errDecode = d.JSON(src)
	} else {
		out, errDecode = d.HTML(src, decoder.Options{Beautify: beautify, Dump: dump})
	}
	if errDecode != nil {
		return errDecode
	}
	_, errWrite := fmt.Fprintln(cmd.OutOrStdout(), out)
	return errWrite
}

func readSource(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 {
		src, err := io.ReadAll(cmd.InOrStdin())
		return string(src), err
	}
	src, err := os.ReadFile(args[0])
	return string(src), err
}

// loadDecoderConfig reads only the decoder section of a grabber config, sites
// are not required for decoding.
func loadDecoderConfig(filename string) (decoder.Config, error) {
	if filename == "" {
		return decoder.Config{}, nil
	}
	yamlBytes, errRead := os.ReadFile(filename)
	if errRead != nil {
		return decoder.Config{}, errRead
	}
	conf := struct {
		Decoder config.Decoder
	}{}
	if errUnmarshal := yaml.Unmarshal(yamlBytes, &conf); errUnmarshal != nil {
		return decoder.Config{}, errUnmarshal
	}
	return conf.Decoder.Config, nil
}
