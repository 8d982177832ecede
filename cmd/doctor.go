package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/pantheonlabs/hermes/internal/config"
	"github.com/pantheonlabs/hermes/internal/persona"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check system environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("hermes doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, using defaults)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Printf("  Vault:    %s", cfg.Vault.Root)
	if _, err := os.Stat(cfg.Vault.Root); err != nil {
		fmt.Println(" (NOT FOUND)")
	} else {
		fmt.Println(" (OK)")
	}

	fmt.Printf("  Agent:    %s", cfg.Agent.Binary)
	if _, err := exec.LookPath(cfg.Agent.Binary); err != nil {
		fmt.Println(" (NOT IN PATH)")
	} else {
		fmt.Println(" (OK)")
	}

	catalog := persona.NewCatalog(filepath.Join(cfg.Vault.Root, cfg.Vault.PersonaDir), persona.ModeStartup)
	fmt.Printf("  Personas: %v\n", catalog.Personas())

	fmt.Println()
	check := func(name, value string) {
		state := "MISSING"
		if value != "" {
			state = "set"
		}
		fmt.Printf("  %-32s %s\n", name, state)
	}
	check("discord token", cfg.Discord.Token)
	check("aws access key", cfg.Mail.AccessKeyID)
	check("mail sender", cfg.Mail.Sender)
}
