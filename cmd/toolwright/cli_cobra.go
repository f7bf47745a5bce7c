package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/forgeloop/toolwright/pkg/config"
)

func executeCLI() error {
	return buildRootCommand().Execute()
}

func buildRootCommand() *cobra.Command {
	var (
		showVersion bool
		configPath  string
	)

	root := &cobra.Command{
		Use:   "toolwright",
		Short: "Conversational build orchestrator that turns chat requests into deployed web tools",
		Long: strings.TrimSpace(`toolwright listens for tool requests in chat, classifies them,
and drives each accepted request through a tracked multi-phase build:
planning, building, testing, deploying. Completed tools land in a
registry and feed the user's build memory.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion()
				return nil
			}
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Show build/version metadata")
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Path to config file")

	root.AddCommand(newOnboardCommand(&configPath))
	root.AddCommand(newChatCommand(&configPath))
	root.AddCommand(newBuildCommand(&configPath))
	root.AddCommand(newGatewayCommand(&configPath))
	root.AddCommand(newRegistryCommand(&configPath))
	root.AddCommand(newStatusCommand(&configPath))
	root.AddCommand(newVersionCommand())

	return root
}

func newOnboardCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "onboard",
		Short:   "Write a default config file and create the workspace",
		Example: "  toolwright onboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(*configPath); err == nil {
				fmt.Printf("Config already exists at %s\n", *configPath)
				return nil
			}
			cfg := config.DefaultConfig()
			if err := config.SaveConfig(*configPath, cfg); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			if err := os.MkdirAll(filepath.Join(cfg.WorkspacePath(), "state"), 0755); err != nil {
				return fmt.Errorf("create workspace: %w", err)
			}
			fmt.Printf("Wrote %s\n", *configPath)
			fmt.Printf("Workspace: %s\n", cfg.WorkspacePath())
			return nil
		},
	}
}

func newChatCommand(configPath *string) *cobra.Command {
	var (
		user    string
		session string
		debug   bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive local session with the orchestrator",
		Example: strings.Join([]string{
			"  toolwright chat",
			"  toolwright chat --user greg --session kitchen",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath, debug)
			if err != nil {
				return err
			}
			defer a.Close()
			return chatREPL(cmd.Context(), a, user, "cli:"+session)
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "local", "User id for memory and preferences")
	cmd.Flags().StringVarP(&session, "session", "s", "default", "Session key for conversation continuity")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func newBuildCommand(configPath *string) *cobra.Command {
	var (
		user    string
		debug   bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:     "build [request]",
		Short:   "One-shot build request without an interactive session",
		Example: `  toolwright build "create a simple expense tracker"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath, debug)
			if err != nil {
				return err
			}
			defer a.Close()

			utterance := strings.Join(args, " ")
			reply := a.service.HandleUtterance(cmd.Context(), user, "cli:oneshot", utterance)
			fmt.Println(reply.Text)
			for _, action := range reply.AlternativeActions {
				fmt.Printf("  - %s\n", action)
			}
			if reply.Session != nil {
				snap := reply.Session.Snapshot()
				fmt.Printf("\nSession %s finished as %s (progress %d%%)\n",
					snap.ID, snap.Status, snap.Progress)
				if verbose {
					for _, entry := range snap.Logs {
						fmt.Printf("  %-8s [%s] %s\n", entry.Level, entry.Phase, entry.Message)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "local", "User id for memory and preferences")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the full build log")
	return cmd
}

func newGatewayCommand(configPath *string) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:     "gateway",
		Short:   "Run the chat gateway: channels, orchestrator loop, and scheduler",
		Example: "  toolwright gateway --debug",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath, debug)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runGateway(ctx, a)
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func newRegistryCommand(configPath *string) *cobra.Command {
	registryRoot := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and manage published tools",
	}

	registryRoot.AddCommand(&cobra.Command{
		Use:     "list",
		Short:   "List published tools",
		Example: "  toolwright registry list",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			regs, err := a.publisher.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(regs) == 0 {
				fmt.Println("No tools published yet.")
				return nil
			}
			for _, reg := range regs {
				state := "active"
				if !reg.Active {
					state = "inactive"
				}
				fmt.Printf("%-30s %-14s %-8s %s\n", reg.ID, reg.Category, state, reg.Name)
			}
			return nil
		},
	})

	registryRoot.AddCommand(&cobra.Command{
		Use:     "show <id>",
		Short:   "Show one published tool",
		Args:    cobra.ExactArgs(1),
		Example: "  toolwright registry show tracker-1748779200",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			reg, err := a.publisher.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s)\n", reg.Name, reg.ID)
			fmt.Printf("  Category:   %s\n", reg.Category)
			fmt.Printf("  Owner:      %s\n", reg.Owner)
			fmt.Printf("  Active:     %t\n", reg.Active)
			fmt.Printf("  Created:    %s\n", reg.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("  Complexity: %s\n", reg.Metadata.Complexity)
			if len(reg.Metadata.Tags) > 0 {
				fmt.Printf("  Tags:       %s\n", strings.Join(reg.Metadata.Tags, ", "))
			}
			return nil
		},
	})

	registryRoot.AddCommand(&cobra.Command{
		Use:     "deactivate <id>",
		Short:   "Mark a published tool inactive",
		Args:    cobra.ExactArgs(1),
		Example: "  toolwright registry deactivate tracker-1748779200",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.publisher.Deactivate(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deactivated %s\n", args[0])
			return nil
		},
	})

	return registryRoot
}

func newStatusCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show configuration and runtime readiness",
		Example: "  toolwright status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			fmt.Printf("Config:    %s\n", *configPath)
			fmt.Printf("Workspace: %s\n", cfg.WorkspacePath())
			fmt.Printf("Store:     %s\n", cfg.StorePath())
			discord := "disabled"
			if strings.TrimSpace(cfg.Channels.Discord.Token) != "" {
				discord = "configured"
			}
			fmt.Printf("Discord:   %s\n", discord)
			fmt.Printf("Scheduler: enabled=%t context=%q registry=%q\n",
				cfg.Scheduler.Enabled, cfg.Scheduler.ContextSweep, cfg.Scheduler.RegistrySweep)
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Show build/version metadata",
		Example: "  toolwright version",
		RunE: func(cmd *cobra.Command, args []string) error {
			printVersion()
			return nil
		},
	}
}

func chatREPL(ctx context.Context, a *app, userID, sessionID string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "you> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".toolwright_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initialize readline: %w", err)
	}
	defer rl.Close()

	fmt.Println("Describe a tool to build it. Type exit to quit.")
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Println("\nGoodbye!")
				return nil
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Goodbye!")
			return nil
		}

		reply := a.service.HandleUtterance(ctx, userID, sessionID, input)
		fmt.Printf("\n%s %s\n", appName+">", reply.Text)
		for _, action := range reply.AlternativeActions {
			fmt.Printf("  - %s\n", action)
		}
		fmt.Println()
	}
}
