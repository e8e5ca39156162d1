package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fiquant/taxpro-bulk/internal/templategen"
	"github.com/fiquant/taxpro-bulk/pkg/utils"
)

var (
	templateOut     string
	templateCompany string
	templateTier    string
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write the employee template (.xlsx)",
	Long: `Writes the bulk employee template. The file is written atomically: if
generation fails, no file is created.

Without --out the template is written to the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		tier, err := a.tier(templateTier)
		if err != nil {
			return err
		}
		s, err := a.session(tier)
		if err != nil {
			return err
		}

		company := templateCompany
		if company == "" {
			company = a.cfg.Company.Name
		}

		out := templateOut
		if out == "" {
			out = a.files.OutputPath(utils.GenerateOutputFileName("paye_bulk_template_{date}", ".xlsx", nil))
		}

		err = utils.WriteFileAtomicFunc(out, func(w io.Writer) error {
			return s.Template(w, templategen.Options{Company: company})
		})
		if err != nil {
			return err
		}

		a.logger.WithField("file", out).Info("template written")
		fmt.Fprintf(cmd.OutOrStdout(), "Template written to %s\n", out)
		return nil
	},
}

func init() {
	templateCmd.Flags().StringVarP(&templateOut, "out", "o", "", "Output path for the template")
	templateCmd.Flags().StringVar(&templateCompany, "company", "", "Company name shown in the template footer")
	templateCmd.Flags().StringVar(&templateTier, "tier", "", "Subscription tier (default from config)")
	rootCmd.AddCommand(templateCmd)
}
