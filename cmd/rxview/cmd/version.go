package cmd

func init() {
	RegisterCommand(&Command{
		Name:  "version",
		Short: "Show version information",
		Long:  "Print the rxview version and build time.",
		Usage: "rxview version",
		Run: func([]string) error {
			printVersion()
			return nil
		},
	})
}
