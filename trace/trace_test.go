package trace_test

import (
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/trace"
)

func sampleAccesses() []trace.Access {
	return []trace.Access{
		{
			Session: "s1", Seq: 1, Op: trace.OpRead, Address: 0x05,
			Value: 0x05, Hit: false, SetIndex: 1, Tag: 0x00,
			EvictedLine: 0, Dirty: -1,
		},
		{
			Session: "s1", Seq: 2, Op: trace.OpWrite, Address: 0x05,
			Value: 0xAB, Hit: true, SetIndex: 1, Tag: 0x00,
			EvictedLine: -1, Dirty: 1,
		},
	}
}

var _ = Describe("Trace", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	Describe("New", func() {
		It("should disable tracing for an empty path", func() {
			r, err := trace.New("")
			Expect(err).NotTo(HaveOccurred())
			Expect(r).To(Equal(trace.NopRecorder{}))
			Expect(r.Record(sampleAccesses()[0])).To(Succeed())
			Expect(r.Close()).To(Succeed())
		})

		It("should pick the backend by extension", func() {
			r, err := trace.New(filepath.Join(dir, "t.csv"))
			Expect(err).NotTo(HaveOccurred())
			Expect(r).To(BeAssignableToTypeOf(&trace.CSVRecorder{}))
			Expect(r.Close()).To(Succeed())

			r, err = trace.New(filepath.Join(dir, "t.sqlite3"))
			Expect(err).NotTo(HaveOccurred())
			Expect(r).To(BeAssignableToTypeOf(&trace.SQLiteRecorder{}))
			Expect(r.Close()).To(Succeed())
		})

		It("should reject unknown extensions", func() {
			_, err := trace.New(filepath.Join(dir, "t.json"))
			Expect(err).To(MatchError(ContainSubstring("unsupported trace destination")))
		})
	})

	Describe("CSVRecorder", func() {
		It("should write a header and one row per access", func() {
			path := filepath.Join(dir, "trace.csv")
			r, err := trace.NewCSVRecorder(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Path()).To(Equal(path))

			for _, a := range sampleAccesses() {
				Expect(r.Record(a)).To(Succeed())
			}
			Expect(r.Close()).To(Succeed())

			f, err := os.Open(path)
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = f.Close() }()

			rows, err := csv.NewReader(f).ReadAll()
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(3))
			Expect(rows[0]).To(Equal([]string{
				"Session", "Seq", "Op", "Address", "Value", "Hit",
				"SetIndex", "Tag", "EvictedLine", "Dirty",
			}))
			Expect(rows[1]).To(Equal([]string{
				"s1", "1", "read", "0x05", "0x05", "false", "1", "00", "0", "-1",
			}))
			Expect(rows[2][2]).To(Equal("write"))
			Expect(rows[2][4]).To(Equal("0xAB"))
		})

		It("should add the extension when missing", func() {
			r, err := trace.NewCSVRecorder(filepath.Join(dir, "trace"))
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Path()).To(Equal(filepath.Join(dir, "trace.csv")))
			Expect(r.Close()).To(Succeed())
		})

		It("should refuse to overwrite an existing file", func() {
			path := filepath.Join(dir, "trace.csv")
			Expect(os.WriteFile(path, nil, 0644)).To(Succeed())

			_, err := trace.NewCSVRecorder(path)
			Expect(err).To(MatchError(ContainSubstring("already exists")))
		})

		It("should reject records after close", func() {
			r, err := trace.NewCSVRecorder(filepath.Join(dir, "trace.csv"))
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Close()).To(Succeed())
			Expect(r.Close()).To(Succeed())

			Expect(r.Record(sampleAccesses()[0])).To(MatchError(os.ErrClosed))
		})
	})

	Describe("SQLiteRecorder", func() {
		It("should insert every access on flush", func() {
			path := filepath.Join(dir, "trace.sqlite3")
			r, err := trace.NewSQLiteRecorder(path)
			Expect(err).NotTo(HaveOccurred())

			for _, a := range sampleAccesses() {
				Expect(r.Record(a)).To(Succeed())
			}
			Expect(r.Flush()).To(Succeed())
			Expect(r.Close()).To(Succeed())

			db, err := sql.Open("sqlite3", path)
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = db.Close() }()

			var count int
			Expect(db.QueryRow("SELECT COUNT(*) FROM " + trace.TableName).Scan(&count)).To(Succeed())
			Expect(count).To(Equal(2))

			var (
				op    string
				value int
				hit   bool
				dirty int
			)
			Expect(db.QueryRow(
				"SELECT Op, Value, Hit, Dirty FROM "+trace.TableName+" WHERE Seq = 2",
			).Scan(&op, &value, &hit, &dirty)).To(Succeed())
			Expect(op).To(Equal("write"))
			Expect(value).To(Equal(0xAB))
			Expect(hit).To(BeTrue())
			Expect(dirty).To(Equal(1))
		})

		It("should record into a supplied database", func() {
			db, err := sql.Open("sqlite3", filepath.Join(dir, "shared.db"))
			Expect(err).NotTo(HaveOccurred())

			r, err := trace.NewSQLiteRecorderWithDB(db)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Path()).To(BeEmpty())

			Expect(r.Record(sampleAccesses()[0])).To(Succeed())
			Expect(r.Close()).To(Succeed())
		})

		It("should refuse to overwrite an existing file", func() {
			path := filepath.Join(dir, "trace.sqlite3")
			Expect(os.WriteFile(path, nil, 0644)).To(Succeed())

			_, err := trace.NewSQLiteRecorder(path)
			Expect(err).To(MatchError(ContainSubstring("already exists")))
		})
	})
})
