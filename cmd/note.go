package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MAjunjie0415/deepread-cc/internal"
)

// noteCmd groups the note store commands
var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage the notes kept for videos",
	Long: `Every deep reading stores its human note for the video.
These commands show, edit, list and delete the stored notes.`,
}

var noteShowCmd = &cobra.Command{
	Use:   "show [YouTube URL or ID]",
	Short: "Show the note of a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNotes(func(store *internal.NoteStore) error {
			note, err := store.Get(cmd.Context(), videoIDArg(args[0]))
			if err != nil {
				return err
			}
			if raw, _ := cmd.Flags().GetBool("raw"); raw {
				fmt.Println(note.Body)
				return nil
			}
			return printMarkdown(note.Body)
		})
	},
}

var noteSetCmd = &cobra.Command{
	Use:   "set [YouTube URL or ID] [note]",
	Short: "Replace the note of a video",
	Example: `  # Set the note from an argument
  deepread note set tAP1eZYEuKA "Re-watch the part about pricing"

  # Set the note from a file or stdin
  deepread note set tAP1eZYEuKA --file note.md
  cat note.md | deepread note set tAP1eZYEuKA`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := noteBody(cmd, args[1:])
		if err != nil {
			return err
		}
		if strings.TrimSpace(body) == "" {
			return fmt.Errorf("note is empty")
		}

		return withNotes(func(store *internal.NoteStore) error {
			note, err := store.Save(cmd.Context(), videoIDArg(args[0]), body)
			if err != nil {
				return err
			}
			if !config.Quiet {
				fmt.Printf("Saved note for %s\n", note.VideoID)
			}
			return nil
		})
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List videos with notes, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNotes(func(store *internal.NoteStore) error {
			notes, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, note := range notes {
				fmt.Printf("%s  %s  %s\n", note.VideoID, note.UpdatedAt.Local().Format(time.DateTime), firstLine(note.Body))
			}
			return nil
		})
	},
}

var noteDeleteCmd = &cobra.Command{
	Use:   "delete [YouTube URL or ID]",
	Short: "Delete the note of a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNotes(func(store *internal.NoteStore) error {
			return store.Delete(cmd.Context(), videoIDArg(args[0]))
		})
	},
}

func withNotes(fn func(*internal.NoteStore) error) error {
	store, err := internal.OpenNoteStore(config.NotesDB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}

func videoIDArg(arg string) string {
	_, id := internal.ParseArg(arg)
	return id
}

// noteBody reads the note from the argument, --file, or stdin
func noteBody(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading note file: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading note from stdin: %w", err)
	}
	return string(data), nil
}

func firstLine(body string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(body), "\n")
	if r := []rune(line); len(r) > 60 {
		return string(r[:60]) + "…"
	}
	return line
}

func init() {
	noteShowCmd.Flags().Bool("raw", false, "Print the Markdown source instead of rendering it")
	noteSetCmd.Flags().String("file", "", "Read the note from a file")
	noteCmd.AddCommand(noteShowCmd, noteSetCmd, noteListCmd, noteDeleteCmd)
	rootCmd.AddCommand(noteCmd)
}
