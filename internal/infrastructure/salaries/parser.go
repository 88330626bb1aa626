package salaries

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/draftkit/nba-drafter/internal/platform/logging"
	"github.com/draftkit/nba-drafter/internal/usecase"
)

// gameInfoRegex splits DraftKings' "AWY@HOM 01/10/2025 07:30PM ET"
// game info column into its away team, home team, and tipoff parts.
var gameInfoRegex = regexp.MustCompile(`^(\w{2,3})@(\w{2,3})\s+(.+?)(?:\s+ET)?$`)

const gameTimeLayout = "01/02/2006 03:04PM"

// easternTime is where every tipoff timestamp on the sheet is anchored.
var easternTime = mustLoadEastern()

func mustLoadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("ET", -5*3600)
	}
	return loc
}

type salaryRow struct {
	Name          string  `validate:"required"`
	Team          string  `validate:"required,uppercase,min=2,max=3"`
	OpposingTeam  string  `validate:"required,uppercase,min=2,max=3"`
	HomeTeam      string  `validate:"required,uppercase,min=2,max=3"`
	Salary        int     `validate:"required,gt=0"`
	AveragePoints float64 `validate:"gte=0"`
}

// Parser reads a DraftKings salary sheet export into salary records.
type Parser struct {
	validate *validator.Validate
	logger   *logging.Logger
}

func NewParser(logger *logging.Logger) *Parser {
	if logger == nil {
		logger = logging.Default()
	}
	return &Parser{
		validate: validator.New(),
		logger:   logger,
	}
}

// Parse decodes the sheet. Rows that fail validation are skipped with a
// warning rather than failing the whole slate, since DraftKings exports
// routinely carry placeholder rows for unconfirmed games.
func (p *Parser) Parse(r io.Reader) ([]usecase.SalaryRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read salary sheet header: %w", err)
	}
	columns, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var out []usecase.SalaryRecord
	line := 1
	for {
		line++
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read salary sheet line %d: %w", line, err)
		}

		record, err := p.parseRow(columns, fields)
		if err != nil {
			p.logger.Warn("skipping salary sheet row", "line", line, "error", err)
			continue
		}
		out = append(out, record)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("salary sheet has no usable rows")
	}
	return out, nil
}

type columnIndex struct {
	name           int
	position       int
	rosterPosition int
	salary         int
	gameInfo       int
	team           int
	avgPoints      int
}

func indexColumns(header []string) (columnIndex, error) {
	byName := make(map[string]int, len(header))
	for i, name := range header {
		byName[strings.ToLower(strings.TrimSpace(name))] = i
	}

	idx := columnIndex{}
	for _, want := range []struct {
		key  string
		dest *int
	}{
		{"name", &idx.name},
		{"position", &idx.position},
		{"roster position", &idx.rosterPosition},
		{"salary", &idx.salary},
		{"game info", &idx.gameInfo},
		{"teamabbrev", &idx.team},
		{"avgpointspergame", &idx.avgPoints},
	} {
		pos, ok := byName[want.key]
		if !ok {
			return columnIndex{}, fmt.Errorf("salary sheet is missing column %q", want.key)
		}
		*want.dest = pos
	}
	return idx, nil
}

func (p *Parser) parseRow(idx columnIndex, fields []string) (usecase.SalaryRecord, error) {
	get := func(i int) string {
		if i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	salary, err := strconv.Atoi(get(idx.salary))
	if err != nil {
		return usecase.SalaryRecord{}, fmt.Errorf("parse salary %q: %w", get(idx.salary), err)
	}

	avgPoints := 0.0
	if raw := get(idx.avgPoints); raw != "" {
		avgPoints, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return usecase.SalaryRecord{}, fmt.Errorf("parse average points %q: %w", raw, err)
		}
	}

	awayTeam, homeTeam, gameTime, err := parseGameInfo(get(idx.gameInfo))
	if err != nil {
		return usecase.SalaryRecord{}, err
	}

	team := strings.ToUpper(get(idx.team))
	opposing := homeTeam
	if team == homeTeam {
		opposing = awayTeam
	}

	record := usecase.SalaryRecord{
		Name:            get(idx.name),
		Team:            team,
		OpposingTeam:    opposing,
		HomeTeam:        homeTeam,
		Positions:       splitSlots(get(idx.position)),
		RosterPositions: splitSlots(get(idx.rosterPosition)),
		Salary:          salary,
		GameTime:        gameTime,
		AveragePoints:   avgPoints,
	}

	checked := salaryRow{
		Name:          record.Name,
		Team:          record.Team,
		OpposingTeam:  record.OpposingTeam,
		HomeTeam:      record.HomeTeam,
		Salary:        record.Salary,
		AveragePoints: record.AveragePoints,
	}
	if err := p.validate.Struct(checked); err != nil {
		return usecase.SalaryRecord{}, fmt.Errorf("validate salary row for %q: %w", record.Name, err)
	}
	if len(record.Positions) == 0 && len(record.RosterPositions) == 0 {
		return usecase.SalaryRecord{}, fmt.Errorf("salary row for %q lists no positions", record.Name)
	}
	return record, nil
}

func parseGameInfo(raw string) (awayTeam, homeTeam string, gameTime time.Time, err error) {
	m := gameInfoRegex.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", "", time.Time{}, fmt.Errorf("unparseable game info %q", raw)
	}

	awayTeam = strings.ToUpper(m[1])
	homeTeam = strings.ToUpper(m[2])
	gameTime, err = time.ParseInLocation(gameTimeLayout, m[3], easternTime)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("parse game time in %q: %w", raw, err)
	}
	return awayTeam, homeTeam, gameTime.UTC(), nil
}

func splitSlots(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		slot := strings.ToUpper(strings.TrimSpace(part))
		if slot == "" {
			continue
		}
		out = append(out, slot)
	}
	return out
}
