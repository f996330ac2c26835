package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const commandTimeout = 45 * time.Second

// NewRootCmd builds the command tree around a.
func NewRootCmd(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "naokomik-cli",
		Short:         "Query manga sources directly",
		Long:          "naokomik-cli runs the list, search, detail and chapter operations against the configured sources and prints what they return.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.initStyles()
		},
	}
	root.PersistentFlags().StringVar(&a.source, "source", SourceAuto, "auto (failover), or a source name such as komiku or komikcast")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print JSON instead of tables")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		latestCmd(a),
		searchCmd(a),
		detailCmd(a),
		chapterCmd(a),
		allowCmd(a),
	)
	return root
}

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), commandTimeout)
}

func latestCmd(a *App) *cobra.Command {
	var page int
	var tag string
	cmd := &cobra.Command{
		Use:   "latest",
		Short: "List manga for a tag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.backend()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()

			res, err := b.LatestManga(ctx, page, tag)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(res)
			}
			return a.printPage(res.Data, res.Source)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringVar(&tag, "tag", "hot", "list tag (hot, update, rekomendasi, ...)")
	return cmd
}

func searchCmd(a *App) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search manga by title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.backend()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()

			res, err := b.SearchManga(ctx, args[0], page)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(res)
			}
			return a.printPage(res.Data, res.Source)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func detailCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "detail <slug>",
		Short: "Show a manga and its chapters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.backend()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()

			res, err := b.MangaDetail(ctx, args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(res)
			}

			d := res.Data
			fmt.Fprintln(a.Out, a.title.Sprint(d.Title))
			a.printField("Slug", d.Slug)
			a.printField("Type", d.Type)
			a.printField("Status", d.Status)
			a.printField("Author", d.Author)
			a.printField("Genres", strings.Join(d.Genres, ", "))
			a.printField("Thumbnail", d.Thumbnail)

			rows := make([][]string, 0, len(d.Chapters))
			for _, ch := range d.Chapters {
				rows = append(rows, []string{ch.Number, ch.Slug, ch.Release})
			}
			if err := a.printTable([]string{"Chapter", "Slug", "Release"}, rows); err != nil {
				return err
			}
			a.printSource(res.Source)
			return nil
		},
	}
}

func chapterCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chapter <slug>",
		Short: "List the page images of a chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.backend()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()

			res, err := b.ChapterImages(ctx, args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(res)
			}

			c := res.Data
			fmt.Fprintln(a.Out, a.title.Sprint(c.Title))
			a.printField("Manga", c.MangaTitle)
			a.printField("Chapter", c.ChapterNumber)
			a.printField("Prev", c.PrevChapter)
			a.printField("Next", c.NextChapter)

			rows := make([][]string, 0, len(c.Images))
			for i, img := range c.Images {
				rows = append(rows, []string{strconv.Itoa(i + 1), img})
			}
			if err := a.printTable([]string{"#", "Image"}, rows); err != nil {
				return err
			}
			a.printSource(res.Source)
			return nil
		},
	}
}

func allowCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "allow <url>",
		Short: "Check a URL against the image proxy allowlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			allowed := a.Allow != nil && a.Allow.Allowed(args[0])
			if a.jsonOut {
				return a.printJSON(map[string]any{"url": args[0], "allowed": allowed})
			}
			if allowed {
				fmt.Fprintln(a.Out, a.ok.Sprint("allowed"), args[0])
			} else {
				fmt.Fprintln(a.Out, a.bad.Sprint("rejected"), args[0])
			}
			return nil
		},
	}
}
