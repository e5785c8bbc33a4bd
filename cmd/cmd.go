// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles account and session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the platform session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with username and password",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password (prompted when omitted)",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "google",
				Usage:  "Sign in with Google via the browser",
				Action: r.AuthGoogle,
			},
			{
				Name:   "logout",
				Usage:  "Clear the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the current session state",
				Action: r.AuthStatus,
			},
			{
				Name:  "register",
				Usage: "Create a new account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Usage:    "Account username",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "email",
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "Account password",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "first-name",
						Usage: "First name",
					},
					&cli.StringFlag{
						Name:  "last-name",
						Usage: "Last name",
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "forgot-password",
				Usage: "Request a password reset email",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "email"},
				},
				Action: r.AuthForgotPassword,
			},
		},
	}
}

// coursesCommand handles course catalog operations
func coursesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "courses",
		Aliases: []string{"course"},
		Usage:   "Browse the course catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List available courses",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Filter courses by search query",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "csv",
						Usage: "Output CSV",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "cached",
						Usage: "Read from the local cache without calling the API",
					},
				},
				Action: r.CoursesList,
			},
			{
				Name:    "my",
				Aliases: []string{"mine"},
				Usage:   "List enrolled courses",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.CoursesMine,
			},
			{
				Name:  "enroll",
				Usage: "Enroll in a course",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "id",
						Usage:    "Course ID",
						Required: true,
					},
				},
				Action: r.CoursesEnroll,
			},
			{
				Name:  "unenroll",
				Usage: "Leave a course",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "id",
						Usage:    "Course ID",
						Required: true,
					},
				},
				Action: r.CoursesUnenroll,
			},
			{
				Name:  "stats",
				Usage: "Show enrollment and progress numbers",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.CoursesStats,
			},
			{
				Name:  "lessons",
				Usage: "List the lessons of a course",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "course",
						Usage:    "Course ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "cached",
						Usage: "Read from the local cache without calling the API",
					},
				},
				Action: r.LessonsList,
			},
			{
				Name:  "materials",
				Usage: "List the protected materials of a lesson",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "lesson",
						Usage:    "Lesson ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "cached",
						Usage: "Read from the local cache without calling the API",
					},
				},
				Action: r.MaterialsList,
			},
			{
				Name:  "complete",
				Usage: "Mark a material as completed",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "id",
						Usage:    "Material ID",
						Required: true,
					},
				},
				Action: r.MaterialComplete,
			},
			{
				Name:  "upload",
				Usage: "Upload a material to a lesson (admin only)",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "lesson",
						Usage:    "Lesson ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "title",
						Usage:    "Material title",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the PDF to upload",
						Required: true,
					},
				},
				Action: r.MaterialUpload,
			},
		},
	}
}

// mediaCommand handles protected media retrieval
func mediaCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "media",
		Usage: "Retrieve protected learning material",
		Commands: []*cli.Command{
			{
				Name:  "view",
				Usage: "Open one material through the local viewer",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "id",
						Usage:    "Material ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "lesson",
						Usage: "Lesson ID, used to resolve the material when it is not cached",
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Delivery mode: fetch or embed",
						Value: r.config.Media.Mode,
					},
				},
				Action: r.MediaView,
			},
			{
				Name:  "prefetch",
				Usage: "Download all materials of a course for offline study",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "course",
						Usage:    "Course ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent download workers",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "rate",
						Usage: "Maximum requests per second",
						Value: 4,
					},
				},
				Action: r.MediaPrefetch,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the local database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "rollback",
				Usage: "Roll back the most recent database migration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupRollback,
			},
			{
				Name:  "config",
				Usage: "Write a config.toml template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive course browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive course browser",
		Action:  r.TUI,
	}
}
