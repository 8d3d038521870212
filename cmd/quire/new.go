package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klingtnet/quire/frontmatter"
	"github.com/klingtnet/quire/slug"
	"github.com/urfave/cli/v2"
)

var ErrNoTitle = errors.New("title must not be empty")

// openExclusive creates name for writing and fails if it already exists.
var openExclusive = func(name string) (io.WriteCloser, error) {
	return os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
}

// createPost writes a post skeleton below contentDir and returns its path.
// Posts are named after their date and slug, drafts only after their slug.
func createPost(contentDir, title string, draft bool, now time.Time, slugifier *slug.Slugifier) (string, error) {
	name := slugifier.Slugify(title)
	if name == "" {
		return "", ErrNoTitle
	}

	meta := frontmatter.Metadata{"title": strings.TrimSpace(title)}
	dest := filepath.Join(contentDir, "_drafts", name+".md")
	if !draft {
		meta["date"] = now.Format("2006-01-02 15:04:05")
		dest = filepath.Join(contentDir, "_posts", now.Format("2006-01-02")+"-"+name+".md")
	}

	err := os.MkdirAll(filepath.Dir(dest), 0755)
	if err != nil {
		return "", err
	}
	f, err := openExclusive(dest)
	if err != nil {
		return dest, err
	}

	_, err = f.Write(frontmatter.Format(meta, "Write something.\n"))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		// Partial skeletons are removed so that the post can be created again.
		_ = os.Remove(dest)
		return dest, err
	}

	return dest, nil
}

func newPost(c *cli.Context) error {
	config, _, err := setup(c)
	if err != nil {
		return err
	}

	title := strings.Join(c.Args().Slice(), " ")
	dest, err := createPost(config.ContentDir, title, c.Bool("draft"), time.Now(), slug.NewSlugifier('-'))
	switch {
	case errors.Is(err, ErrNoTitle):
		return cli.Exit("a title is required", BadArgument)
	case errors.Is(err, fs.ErrExist):
		return cli.Exit(fmt.Sprintf("%s already exists", dest), BadArgument)
	case err != nil:
		return cli.Exit(fmt.Sprintf("creating post failed: %s", err.Error()), InternalError)
	}

	fmt.Println(dest)

	return nil
}
