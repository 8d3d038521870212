package generator

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/klingtnet/quire/frontmatter"
	"github.com/klingtnet/quire/slug"
)

// DiscardStorage implements Storage.
type DiscardStorage struct {
	lock sync.RWMutex
	N    int
}

// Store implements Storage.
func (ds *DiscardStorage) Store(ctx context.Context, name string, content io.Reader) (err error) {
	ds.inc()
	_, err = io.Copy(io.Discard, content)
	return
}

func (ds *DiscardStorage) reset() {
	ds.lock.Lock()
	ds.N = 0
	ds.lock.Unlock()
}

func (ds *DiscardStorage) inc() {
	ds.lock.Lock()
	ds.N++
	ds.lock.Unlock()
}

func (ds *DiscardStorage) calls() (N int) {
	ds.lock.RLock()
	N = ds.N
	ds.lock.RUnlock()
	return
}

var benchCategories = []string{"go", "benchmark", "generator", "notes"}

// newBenchContentFS returns posts dated one day apart, each in one of four categories.
func newBenchContentFS(b *testing.B, posts int) fs.FS {
	contentFS := fstest.MapFS{}
	body, err := os.ReadFile("../README.md")
	if err != nil {
		b.Fatal(err)
	}

	start := time.Date(2021, 7, 17, 0, 0, 0, 0, time.UTC)
	for i := 0; i < posts; i++ {
		meta := frontmatter.Metadata{
			"title":       fmt.Sprintf("%s %05d", b.Name(), i),
			"description": "A random post used for benchmarking the generator.",
			"date":        start.AddDate(0, 0, i).Format("2006-01-02"),
			"categories":  benchCategories[i%len(benchCategories)],
		}
		contentFS[fmt.Sprintf("_posts/post%05d.md", i)] = &fstest.MapFile{
			Data: frontmatter.Format(meta, string(body)),
		}
	}

	return contentFS
}

func BenchmarkGenerator(b *testing.B) {
	ds := &DiscardStorage{}
	sl := slug.NewSlugifier('-')
	config := &Config{Author: b.Name(), BaseURL: "https://does.not.matter", Paginate: 10}
	config.ApplyDefaults()
	r, err := NewRenderer(config, nil, sl)
	if err != nil {
		b.Fatal(err)
	}
	generator := New(config, newBenchContentFS(b, 1000), nil, ds, sl, r)

	// posts, 100 home pages, 4*25 category pages, feed and stylesheet
	expected := 1000 + 100 + 100 + 2
	for _, concurrency := range []int{1, runtime.NumCPU() / 2, runtime.NumCPU(), runtime.NumCPU() * 2} {
		if concurrency < 1 {
			continue
		}
		b.Run(fmt.Sprintf("concurrency-%d", concurrency), func(b *testing.B) {
			generator.concurrency = concurrency
			for n := 0; n < b.N; n++ {
				ds.reset()
				err := generator.Run(context.Background())
				if err != nil {
					b.Fatal(err.Error())
				}
				if ds.calls() != expected {
					b.Fatalf("not enough outputs written, expected %d but was %d", expected, ds.calls())
				}
			}
		})
	}
}

func BenchmarkCopyStaticFiles(b *testing.B) {
	testFS := make(fstest.MapFS)

	rr := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < 1000; i++ {
		f := &fstest.MapFile{Data: make([]byte, 1024*1024)}
		_, err := rr.Read(f.Data)
		if err != nil {
			b.Fatal(err.Error())
		}
		testFS[strconv.Itoa(i)+".bin"] = f
	}

	ds := &DiscardStorage{}
	generator := New(&Config{}, nil, testFS, ds, nil, nil)
	static := &build{outputs: make(map[string][]byte)}
	for name := range testFS {
		static.copies = append(static.copies, copyJob{testFS, name})
	}
	for _, concurrency := range []int{1, runtime.NumCPU(), runtime.NumCPU() * 2} {
		b.Run(fmt.Sprintf("concurrency-%d", concurrency), func(b *testing.B) {
			generator.concurrency = concurrency
			for n := 0; n < b.N; n++ {
				ds.reset()
				err := generator.commit(context.Background(), static)
				if err != nil {
					b.Fatal(err.Error())
				}
			}
		})
	}
}
