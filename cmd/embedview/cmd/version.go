package cmd

func init() {
	RegisterCommand(&Command{
		Name:  "version",
		Short: "Show version information",
		Long:  "Print the embedview version and build time.",
		Usage: "embedview version",
		Run: func(args []string) error {
			printVersion()
			return nil
		},
	})
}
