package main

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/janhq/drivethru-server/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
	Long:  `Inspect the configuration the server would start with.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Long:  `Load .env files and environment variables, validate them and print the result with secrets masked.`,
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)

	configShowCmd.Flags().Bool("reveal", false, "Print secrets unmasked")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	reveal, _ := cmd.Flags().GetBool("reveal")

	cfg, err := configFromEnv()
	if err != nil {
		return err
	}

	values := configValues(cfg, reveal)
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

// configValues flattens cfg into env-name keyed values.
func configValues(cfg *config.Config, reveal bool) map[string]string {
	out := make(map[string]string)
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		value := fmt.Sprint(v.Field(i).Interface())
		if !reveal && isSecret(name) && value != "" {
			value = maskSecret(value)
		}
		out[name] = value
	}
	return out
}

func isSecret(name string) bool {
	return strings.HasSuffix(name, "_KEY") || (strings.HasSuffix(name, "_URL") && name != "LLM_API_URL")
}

// maskSecret hides credentials: URLs keep scheme and host, keys their last
// four characters.
func maskSecret(value string) string {
	if at := strings.LastIndex(value, "@"); at >= 0 {
		if scheme := strings.Index(value, "://"); scheme >= 0 && scheme < at {
			return value[:scheme+3] + "****" + value[at:]
		}
	}
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}

func loadEnvFiles() {
	paths := []string{".env", "../.env", "../../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
