package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jorge-barreto/stepwise/internal/action"
	"github.com/jorge-barreto/stepwise/internal/docs"
	"github.com/jorge-barreto/stepwise/internal/doctor"
	"github.com/jorge-barreto/stepwise/internal/git"
	"github.com/jorge-barreto/stepwise/internal/hooks"
	"github.com/jorge-barreto/stepwise/internal/logs"
	"github.com/jorge-barreto/stepwise/internal/refs"
	"github.com/jorge-barreto/stepwise/internal/scaffold"
	"github.com/jorge-barreto/stepwise/internal/step"
	"github.com/jorge-barreto/stepwise/internal/store"
	"github.com/jorge-barreto/stepwise/internal/tutorial"
	"github.com/jorge-barreto/stepwise/internal/ux"
	cli "github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:        "stepwise",
		Usage:       "Build step-by-step tutorials out of git history",
		Description: "Run 'stepwise docs' for documentation on steps, manuals, hooks and configuration.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "Log debug output to stderr"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				logs.SetLevel("debug")
			}
			ux.SetColor(ux.ColorEnabled(os.Stdout))
			return ctx, git.Preflight()
		},
		Commands: []*cli.Command{
			initCmd(),
			stepCmd(),
			manualCmd(),
			statusCmd(),
			doctorCmd(),
			docsCmd(),
			hooksCmd(),
			refsCmd(),
			rebaseCmd(),
			storeCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		var v hooks.Violation
		if errors.As(err, &v) {
			fmt.Fprintln(os.Stderr, v.Error())
		} else {
			ux.Error(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// session is an open tutorial plus its logger.
type session struct {
	*tutorial.Tutorial
	log *logs.Logger
}

func (s *session) Close() { s.log.Close() }

// open discovers the tutorial around the working directory.
func open(ctx context.Context) (*session, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	t, err := tutorial.Open(ctx, "", exe)
	if err != nil {
		return nil, err
	}
	opts := logs.Options{}
	if t.GitDir != "" {
		opts.FileDir = filepath.Join(t.GitDir, "stepwise")
	}
	opts.Session = func() string {
		id, _ := t.Store.Get(store.KeySession)
		return id
	}
	l := logs.New(opts)
	t.Log = l.Logger
	return &session{Tutorial: t, log: l}, nil
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a tutorial in the current git repository",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Tutorial name (defaults to the directory name)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			files, err := s.Init(ctx, cmd.String("name"))
			if err != nil {
				return err
			}
			if len(files) == 0 {
				ux.StepDone(os.Stdout, "initialized", s.Config.Name)
				return nil
			}
			scaffold.PrintSuccess(os.Stdout, s.Config.Name, files)
			return nil
		},
	}
}

func stepCmd() *cli.Command {
	return &cli.Command{
		Name:  "step",
		Usage: "Create, remove and edit steps",
		Commands: []*cli.Command{
			{
				Name:  "push",
				Usage: "Commit the staged changes as the next step",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "Step message", Required: true},
					&cli.BoolFlag{Name: "allow-empty", Usage: "Allow a step without changes"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := open(ctx)
					if err != nil {
						return err
					}
					defer s.Close()
					id, err := s.Push(ctx, cmd.String("message"), cmd.Bool("allow-empty"))
					if err != nil {
						return err
					}
					ux.StepDone(os.Stdout, "pushed", fmt.Sprintf("Step %s: %s", id, cmd.String("message")))
					return nil
				},
			},
			{
				Name:  "pop",
				Usage: "Remove the most recent step",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := open(ctx)
					if err != nil {
						return err
					}
					defer s.Close()
					id, err := s.Pop(ctx)
					if err != nil {
						return err
					}
					ux.StepDone(os.Stdout, "popped", "Step "+id.String())
					return nil
				},
			},
			{
				Name:  "tag",
				Usage: "Close the current super step with its manual",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "Super step title", Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := open(ctx)
					if err != nil {
						return err
					}
					defer s.Close()
					id, err := s.Tag(ctx, cmd.String("message"))
					if err != nil {
						return err
					}
					ux.StepDone(os.Stdout, "tagged", fmt.Sprintf("Step %s: %s", id, cmd.String("message")))
					return nil
				},
			},
			{
				Name:      "edit",
				Usage:     "Stop a rebase at each given step",
				ArgsUsage: "<step>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "root", Usage: "Edit the root commit"},
					&cli.StringFlag{Name: "update-refs", Usage: "Tutorial whose diffStep references follow the new numbers"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := open(ctx)
					if err != nil {
						return err
					}
					defer s.Close()
					steps := cmd.Args().Slice()
					if cmd.Bool("root") {
						steps = append([]string{step.Root}, steps...)
					}
					ux.RebaseStarted(os.Stdout, "editing")
					if err := s.Edit(ctx, tutorial.EditOptions{Steps: steps, UpdateRefs: cmd.String("update-refs")}); err != nil {
						return err
					}
					if s.Git.IsRebasing(ctx) {
						ux.RebaseHint(os.Stdout)
					}
					return nil
				},
			},
			{
				Name:      "reword",
				Usage:     "Change a step message, the most recent one by default",
				ArgsUsage: "[<step>]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "New message (opens the editor when omitted)"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := open(ctx)
					if err != nil {
						return err
					}
					defer s.Close()
					return s.Reword(ctx, cmd.Args().First(), cmd.String("message"))
				},
			},
			{
				Name:  "list",
				Usage: "List the steps",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := open(ctx)
					if err != nil {
						return err
					}
					defer s.Close()
					rows, current, err := stepRows(ctx, s)
					if err != nil {
						return err
					}
					ux.RenderSteps(os.Stdout, rows, current)
					return nil
				},
			},
		},
	}
}

func stepRows(ctx context.Context, s *session) ([]ux.Row, step.ID, error) {
	steps, err := s.Steps(ctx)
	if err != nil {
		return nil, step.ID{}, err
	}
	rows := make([]ux.Row, 0, len(steps))
	for _, st := range steps {
		rows = append(rows, ux.Row{ID: st.ID, Message: st.Message, Hash: st.Hash})
	}
	current, err := s.CurrentStep(ctx)
	return rows, current, err
}

func manualCmd() *cli.Command {
	return &cli.Command{
		Name:  "manual",
		Usage: "Manage the tutorial manuals",
		Commands: []*cli.Command{
			{
				Name:  "render",
				Usage: "Re-render every manual through the whole history",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := open(ctx)
					if err != nil {
						return err
					}
					defer s.Close()
					ux.RebaseStarted(os.Stdout, "rendering manuals")
					return s.RenderAll(ctx)
				},
			},
		},
	}
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the current step and the step list",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			if s.Root == "" {
				return fmt.Errorf("%w: not inside a git repository", step.ErrUsage)
			}
			if s.ConfigErr != nil {
				return s.ConfigErr
			}
			if s.Config == nil {
				return store.ErrNotInitialized
			}
			rows, current, err := stepRows(ctx, s)
			if err != nil {
				return err
			}
			branch, _ := s.Git.CurrentBranch(ctx)
			editing, _ := s.Store.Get(store.KeyOldStep)
			ux.RenderStatus(os.Stdout, ux.Status{
				Tutorial: s.Config.Name,
				Branch:   branch,
				Current:  current,
				Rebasing: s.Git.IsRebasing(ctx),
				Editing:  editing,
				Steps:    rows,
			})
			return nil
		},
	}
}

func doctorCmd() *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "Diagnose hook installation, config and stale rebase state",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "fix", Usage: "Reinstall hooks and clear stale rebase state"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			if s.Root == "" {
				return fmt.Errorf("%w: not inside a git repository", step.ErrUsage)
			}
			hooksDir, err := s.Git.HooksDir(ctx)
			if err != nil {
				return err
			}
			in := doctor.Input{
				HooksDir:  hooksDir,
				Exe:       s.Exe,
				Store:     s.Store,
				Config:    s.Config,
				ConfigErr: s.ConfigErr,
				Rebasing:  s.Git.IsRebasing(ctx),
			}
			if cmd.Bool("fix") {
				if err := doctor.Fix(in); err != nil {
					return err
				}
			}
			if doctor.Print(os.Stdout, doctor.Diagnose(in)) {
				return errors.New("doctor found problems")
			}
			return nil
		},
	}
}

func docsCmd() *cli.Command {
	return &cli.Command{
		Name:      "docs",
		Usage:     "Show documentation",
		ArgsUsage: "[topic]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				docs.List(os.Stdout)
				return nil
			}
			t, err := docs.Get(name)
			if err != nil {
				return err
			}
			fmt.Print(t.Content)
			return nil
		},
	}
}

func hooksCmd() *cli.Command {
	return &cli.Command{
		Name:  "hooks",
		Usage: "Install or run the git hooks",
		Commands: []*cli.Command{
			{
				Name:  "install",
				Usage: "Install the hook shims",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := open(ctx)
					if err != nil {
						return err
					}
					defer s.Close()
					dir, err := s.Git.HooksDir(ctx)
					if err != nil {
						return err
					}
					if err := hooks.Install(dir, s.Exe); err != nil {
						return err
					}
					ux.StepDone(os.Stdout, "installed hooks in", dir)
					return nil
				},
			},
			{
				Name:            "run",
				Usage:           "Run a hook (called by the installed shims)",
				ArgsUsage:       "<name> [args...]",
				Hidden:          true,
				SkipFlagParsing: true,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					args := cmd.Args().Slice()
					if len(args) == 0 {
						return fmt.Errorf("%w: missing hook name", step.ErrUsage)
					}
					s, err := open(ctx)
					if err != nil {
						return err
					}
					defer s.Close()
					if s.ConfigErr != nil {
						return s.ConfigErr
					}
					ctx = logs.WithAction(ctx, "hook "+args[0])
					s.Log.DebugContext(ctx, "hook", "args", args[1:])
					return hooks.Run(ctx, s.Git, s.Store, s.Config, args[0], args[1:])
				},
			},
		},
	}
}

func refsCmd() *cli.Command {
	return &cli.Command{
		Name:  "refs",
		Usage: "Manage the per-step tags and branches",
		Commands: []*cli.Command{
			{
				Name:  "rebuild",
				Usage: "Recreate every step tag and branch from history",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := open(ctx)
					if err != nil {
						return err
					}
					defer s.Close()
					idx, err := refs.Rebuild(ctx, s.Git)
					if err != nil {
						return err
					}
					ux.StepDone(os.Stdout, "rebuilt", fmt.Sprintf("%d super step refs for %s", len(idx.Steps), idx.Base))
					return nil
				},
			},
		},
	}
}

// rebaseCmd is the re-entry point of every instruction stepwise writes into a
// rebase todo list.
func rebaseCmd() *cli.Command {
	return &cli.Command{
		Name:            "rebase",
		Usage:           "Run a generated rebase instruction",
		ArgsUsage:       "<action> [args...]",
		Hidden:          true,
		SkipFlagParsing: true,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := action.Parse(cmd.Args().Slice())
			if err != nil {
				return fmt.Errorf("%w: %v", step.ErrUsage, err)
			}
			s, err := open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Ready(); err != nil {
				return err
			}
			ctx = logs.WithAction(ctx, string(a.Kind))
			if err := s.Dispatch(ctx, a); err != nil {
				s.Log.ErrorContext(ctx, "instruction failed", "error", err)
				return err
			}
			return nil
		},
	}
}

func storeCmd() *cli.Command {
	return &cli.Command{
		Name:   "store",
		Usage:  "Inspect the durable store",
		Hidden: true,
		Commands: []*cli.Command{
			{
				Name:      "get",
				ArgsUsage: "<key>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := open(ctx)
					if err != nil {
						return err
					}
					defer s.Close()
					v, err := s.Store.Get(cmd.Args().First())
					if err != nil {
						return err
					}
					fmt.Println(v)
					return nil
				},
			},
			{
				Name: "list",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := open(ctx)
					if err != nil {
						return err
					}
					defer s.Close()
					keys, err := s.Store.Keys()
					if err != nil {
						return err
					}
					for _, k := range keys {
						v, err := s.Store.Get(k)
						if err != nil {
							return err
						}
						fmt.Printf("%s=%s\n", k, v)
					}
					return nil
				},
			},
			{
				Name:      "set",
				ArgsUsage: "<key> <value>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 2 {
						return fmt.Errorf("%w: store set <key> <value>", step.ErrUsage)
					}
					s, err := open(ctx)
					if err != nil {
						return err
					}
					defer s.Close()
					return s.Store.Set(cmd.Args().Get(0), cmd.Args().Get(1))
				},
			},
			{
				Name:      "remove",
				ArgsUsage: "<key>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := open(ctx)
					if err != nil {
						return err
					}
					defer s.Close()
					return s.Store.Remove(cmd.Args().First())
				},
			},
		},
	}
}
