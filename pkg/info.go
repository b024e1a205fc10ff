package pkg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/ecopia-map/las_codec/internal/las"
	"github.com/ecopia-map/las_codec/internal/options"
	"github.com/ecopia-map/las_codec/internal/summary"
	"github.com/ecopia-map/las_codec/pkg/chain_manager"
	"github.com/ecopia-map/las_codec/tools"
)

// points read between two cancellation checks
const cancelCheckInterval = 1 << 16

type HeaderInfo struct {
	Version          string      `json:"version"`
	SystemID         string      `json:"system_id"`
	SoftwareID       string      `json:"software_id"`
	ProjectID        string      `json:"project_id"`
	FileSourceID     uint16      `json:"file_source_id"`
	CreationDOY      uint16      `json:"creation_doy"`
	CreationYear     uint16      `json:"creation_year"`
	HeaderSize       uint16      `json:"header_size"`
	DataOffset       uint32      `json:"data_offset"`
	VLRCount         uint32      `json:"vlr_count"`
	PointFormat      string      `json:"point_format"`
	RecordLength     uint16      `json:"record_length"`
	PointCount       uint32      `json:"point_count"`
	PointsByReturn   [5]uint32   `json:"points_by_return"`
	Scale            las.Vector3 `json:"scale"`
	Offset           las.Vector3 `json:"offset"`
	Min              las.Vector3 `json:"min"`
	Max              las.Vector3 `json:"max"`
	Compressed       bool        `json:"compressed"`
	SpatialReference string      `json:"spatial_reference,omitempty"`
}

type FileInfo struct {
	File       string          `json:"file"`
	Header     HeaderInfo      `json:"header"`
	Summary    *summary.Report `json:"summary,omitempty"`
	Mismatches []string        `json:"mismatches,omitempty"`
}

func newHeaderInfo(h *las.Header) HeaderInfo {
	return HeaderInfo{
		Version:          fmt.Sprintf("%d.%d", h.VersionMajor(), h.VersionMinor()),
		SystemID:         h.SystemID(),
		SoftwareID:       h.SoftwareID(),
		ProjectID:        h.ProjectID().String(),
		FileSourceID:     h.FileSourceID(),
		CreationDOY:      h.CreationDOY(),
		CreationYear:     h.CreationYear(),
		HeaderSize:       h.HeaderSize(),
		DataOffset:       h.DataOffset(),
		VLRCount:         h.RecordsCount(),
		PointFormat:      h.DataFormatID().String(),
		RecordLength:     h.DataRecordLength(),
		PointCount:       h.PointRecordsCount(),
		PointsByReturn:   h.PointRecordsByReturnCount(),
		Scale:            h.Scale(),
		Offset:           h.Offset(),
		Min:              h.Min(),
		Max:              h.Max(),
		Compressed:       h.Compressed(),
		SpatialReference: h.SpatialReference(),
	}
}

// Info prints the header and a point summary of every input file
type Info struct {
	fileFinder   tools.FileFinder
	chainManager chain_manager.ChainManager
	out          io.Writer
}

func NewInfo(fileFinder tools.FileFinder, chainManager chain_manager.ChainManager, out io.Writer) Runner {
	return &Info{
		fileFinder:   fileFinder,
		chainManager: chainManager,
		out:          out,
	}
}

// Summarizes the files concurrently and prints them in input order
func (info *Info) Run(ctx context.Context, opts *options.ExportOptions) error {
	defer cleanup(info.chainManager)

	lasFiles, err := listFiles(info.fileFinder, opts)
	if err != nil {
		return err
	}
	infoOpts := opts.InfoOptions
	if infoOpts == nil {
		infoOpts = &options.InfoOptions{Format: options.OutputFormatText}
	}

	results := make([]*FileInfo, len(lasFiles))
	g, gctx := errgroup.WithContext(ctx)
	if opts.Producers > 0 {
		g.SetLimit(opts.Producers)
	}
	for i, filePath := range lasFiles {
		i, filePath := i, filePath
		g.Go(func() error {
			fi, err := info.summarizeFile(gctx, filePath, infoOpts.CheckHeader)
			if err != nil {
				return fmt.Errorf("%s: %w", filePath, err)
			}
			results[i] = fi
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if infoOpts.Format == options.OutputFormatJSON {
		_, err = fmt.Fprintln(info.out, tools.FmtJSONString(results))
		return err
	}
	for _, fi := range results {
		if err := writeFileInfo(info.out, fi); err != nil {
			return err
		}
	}
	return nil
}

func (info *Info) summarizeFile(ctx context.Context, filePath string, checkHeader bool) (*FileInfo, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := las.NewReader(f)
	if errors.Is(err, las.ErrCompressed) {
		// the header is still readable
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		h, err := las.ReadHeader(f)
		if err != nil {
			return nil, err
		}
		glog.Warningf("%s: compressed point data, only the header is reported", filePath)
		return &FileInfo{File: filePath, Header: newHeaderInfo(h)}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := info.chainManager.GetReaderSetup()(r); err != nil {
		return nil, err
	}

	s := summary.NewSummary()
	for n := 0; ; n++ {
		if n%cancelCheckInterval == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		s.AddPoint(p)
	}

	report := s.Report()
	fi := &FileInfo{
		File:    filePath,
		Header:  newHeaderInfo(r.Header()),
		Summary: &report,
	}
	if checkHeader {
		check := s.CheckHeader
		if info.chainManager.TransformsCoordinates() {
			// transformed points no longer match the declared extent
			check = s.CheckCounts
		}
		for _, m := range check(r.Header()) {
			glog.Warningf("%s: %s", filePath, m)
			fi.Mismatches = append(fi.Mismatches, m.String())
		}
	}
	glog.Infof("summarized %s: %d points", filePath, s.Count())
	return fi, nil
}

func writeFileInfo(w io.Writer, fi *FileInfo) error {
	var sb strings.Builder
	h := fi.Header
	line := func(name string, value interface{}) {
		fmt.Fprintf(&sb, "  %-28s %v\n", name+":", value)
	}
	vector := func(v las.Vector3) string {
		return fmt.Sprintf("%v %v %v", v.X, v.Y, v.Z)
	}

	sb.WriteString("---------------------------------------------------------\n")
	fmt.Fprintf(&sb, "  Header Summary: %s\n", fi.File)
	sb.WriteString("---------------------------------------------------------\n")
	line("Version", h.Version)
	line("Source ID", h.FileSourceID)
	line("Project ID/GUID", h.ProjectID)
	line("System ID", h.SystemID)
	line("Generating Software", h.SoftwareID)
	line("File Creation Day/Year", fmt.Sprintf("%d/%d", h.CreationDOY, h.CreationYear))
	line("Header Byte Size", h.HeaderSize)
	line("Data Offset", h.DataOffset)
	line("Number Var. Length Records", h.VLRCount)
	line("Point Data Format", h.PointFormat)
	line("Point Data Record Length", h.RecordLength)
	line("Number of Point Records", h.PointCount)
	line("Number of Points by Return", fmt.Sprintf("%d %d %d %d %d", h.PointsByReturn[0], h.PointsByReturn[1], h.PointsByReturn[2], h.PointsByReturn[3], h.PointsByReturn[4]))
	line("Scale Factor X Y Z", vector(h.Scale))
	line("Offset X Y Z", vector(h.Offset))
	line("Min X Y Z", vector(h.Min))
	line("Max X Y Z", vector(h.Max))
	if h.Compressed {
		line("Compressed", true)
	}

	if s := fi.Summary; s != nil {
		sb.WriteString("\n  Point Summary\n")
		line("Count", s.Count)
		line("Minimum X Y Z", fmt.Sprintf("%v %v %v", s.Minimum.X, s.Minimum.Y, s.Minimum.Z))
		line("Maximum X Y Z", fmt.Sprintf("%v %v %v", s.Maximum.X, s.Maximum.Y, s.Maximum.Z))
		line("Intensity", fmt.Sprintf("%d - %d", s.Minimum.Intensity, s.Maximum.Intensity))
		line("Scan Angle Rank", fmt.Sprintf("%d - %d", s.Minimum.ScanAngleRank, s.Maximum.ScanAngleRank))
		if s.Minimum.Time != nil && s.Maximum.Time != nil {
			line("GPS Time", fmt.Sprintf("%f - %f", *s.Minimum.Time, *s.Maximum.Time))
		}
		if s.Minimum.Color != nil && s.Maximum.Color != nil {
			line("Color", fmt.Sprintf("%v - %v", *s.Minimum.Color, *s.Maximum.Color))
		}
		line("Points by Return", s.PointsByReturn)
		line("Returns of Given Pulse", s.ReturnsOfGivenPulse)
		line("Synthetic/KeyPoint/Withheld", fmt.Sprintf("%d/%d/%d", s.Synthetic, s.KeyPoint, s.Withheld))
		if len(s.Classification) > 0 {
			sb.WriteString("\n  Point Classifications\n")
			for _, c := range s.Classification {
				fmt.Fprintf(&sb, "  %12d  %s (%d)\n", c.Count, c.Name, c.Class)
			}
		}
	}

	for _, m := range fi.Mismatches {
		fmt.Fprintf(&sb, "  WARNING: %s\n", m)
	}
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
