package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hengadev/xmlcodec"
	"github.com/hengadev/xmlcodec/docstore"
	"github.com/hengadev/xmlcodec/providers/hashicorpvault"
	"github.com/hengadev/xmlcodec/quiz"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const vaultPrefix = "xmlq/documents"

// app carries what every command needs once flags are parsed.
type app struct {
	cfgFile  string
	logLevel string

	cfg    xmlcodec.Config
	engine *xmlcodec.Engine
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "xmlq",
		Short: "Check, format and store quiz XML documents",
		Long: `xmlq reads quiz documents written by the xmlcodec engine.

Settings come from XMLQ_* environment variables, optionally loaded from a
.env file in the working directory, or from the YAML file given with
--config. Run "xmlq init" to write a configuration file with every
default.`,
		Version:           xmlcodec.VersionInfo(),
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup() },
	}
	cmd.SetVersionTemplate("{{printf \"%s\" .Version}}\n")

	persistent := cmd.PersistentFlags()
	persistent.StringVarP(&a.cfgFile, "config", "c", "", "config file path")
	persistent.StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(
		newCheckCmd(a),
		newFmtCmd(a),
		newDumpCmd(a),
		newStoreCmd(a),
		newArchiveCmd(a),
		newInitCmd(a),
	)
	return cmd
}

func (a *app) setup() error {
	// .env is optional
	_ = godotenv.Load()

	var (
		cfg xmlcodec.Config
		err error
	)
	if a.cfgFile != "" {
		cfg, err = xmlcodec.LoadConfigFile(a.cfgFile)
	} else {
		cfg, err = xmlcodec.LoadConfigFromEnvironment()
	}
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	engine, err := xmlcodec.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	if err := quiz.RegisterTypes(engine); err != nil {
		return fmt.Errorf("register quiz types: %w", err)
	}
	a.cfg = cfg
	a.engine = engine
	a.logger = engine.Logger()
	return nil
}

// loadQuiz reads and checks a quiz file.
func (a *app) loadQuiz(path string) (*quiz.Quiz, []byte, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	root, err := xmlcodec.ParseDocument(body)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := quiz.CheckVersion(root, a.cfg.QuizVersion); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	q, err := xmlcodec.Deserialize[*quiz.Quiz](a.engine, root)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return q, body, nil
}

// openStore returns the Vault store when sealed is set, otherwise the
// SQLite store. The returned func releases the store.
func (a *app) openStore(sealed bool) (docstore.Store, func(), error) {
	if sealed {
		if a.cfg.VaultAddr == "" {
			return nil, nil, fmt.Errorf("%w: %s is not set", xmlcodec.ErrInvalidConfiguration, xmlcodec.EnvVaultAddr)
		}
		client, err := hashicorpvault.NewClient(a.cfg.VaultAddr)
		if err != nil {
			return nil, nil, err
		}
		return hashicorpvault.NewStore(client.Logical(), a.cfg.VaultMount, vaultPrefix, a.logger), func() {}, nil
	}
	s, err := docstore.OpenSQLite(a.cfg.DBFile(), a.logger)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { s.Close() }, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
