package salaries

import (
	"strings"
	"testing"
	"time"

	"github.com/draftkit/nba-drafter/internal/platform/logging"
)

const sheetHeader = "Position,Name + ID,Name,ID,Roster Position,Salary,Game Info,TeamAbbrev,AvgPointsPerGame\n"

func TestParseSheetBasicRow(t *testing.T) {
	t.Parallel()

	parser := NewParser(logging.NewNop())
	records, err := parser.Parse(strings.NewReader(sheetHeader +
		"SF/PF,Jayson Tatum (12345),Jayson Tatum,12345,SF/PF/F/UTIL,9800,NYK@BOS 01/10/2025 07:30PM ET,BOS,52.3\n"))
	if err != nil {
		t.Fatalf("parse sheet: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("unexpected record count: got=%d want=1", len(records))
	}

	record := records[0]
	if record.Name != "Jayson Tatum" || record.Team != "BOS" {
		t.Fatalf("unexpected identity: %+v", record)
	}
	if record.OpposingTeam != "NYK" || record.HomeTeam != "BOS" {
		t.Fatalf("teams must come from the game info column: %+v", record)
	}
	if record.Salary != 9800 || record.AveragePoints != 52.3 {
		t.Fatalf("unexpected numbers: %+v", record)
	}
	if len(record.Positions) != 2 || record.Positions[0] != "SF" {
		t.Fatalf("unexpected positions: %v", record.Positions)
	}
	if len(record.RosterPositions) != 4 || record.RosterPositions[3] != "UTIL" {
		t.Fatalf("unexpected roster positions: %v", record.RosterPositions)
	}

	wantTime := time.Date(2025, time.January, 10, 19, 30, 0, 0, easternTime).UTC()
	if !record.GameTime.Equal(wantTime) {
		t.Fatalf("unexpected game time: got=%v want=%v", record.GameTime, wantTime)
	}
}

func TestParseSheetAwaySideOpponent(t *testing.T) {
	t.Parallel()

	parser := NewParser(logging.NewNop())
	records, err := parser.Parse(strings.NewReader(sheetHeader +
		"PG,Jalen Brunson (67890),Jalen Brunson,67890,PG/G/UTIL,9100,NYK@BOS 01/10/2025 07:30PM ET,NYK,48.1\n"))
	if err != nil {
		t.Fatalf("parse sheet: %v", err)
	}

	record := records[0]
	if record.OpposingTeam != "BOS" || record.HomeTeam != "BOS" {
		t.Fatalf("away player must oppose the host: %+v", record)
	}
}

func TestParseSheetQuotedSuffixedName(t *testing.T) {
	t.Parallel()

	parser := NewParser(logging.NewNop())
	records, err := parser.Parse(strings.NewReader(sheetHeader +
		`"PF/C","Jaren Jackson Jr. (24680)","Jaren Jackson Jr.",24680,"PF/C/F/UTIL",8200,MEM@GSW 01/10/2025 10:00PM ET,MEM,41.7` + "\n"))
	if err != nil {
		t.Fatalf("parse sheet: %v", err)
	}

	record := records[0]
	if record.Name != "Jaren Jackson Jr." {
		t.Fatalf("quoted suffixed name must survive: %q", record.Name)
	}
	if record.Team != "MEM" || record.OpposingTeam != "GSW" {
		t.Fatalf("unexpected teams: %+v", record)
	}
}

func TestParseSheetSkipsBadRows(t *testing.T) {
	t.Parallel()

	parser := NewParser(logging.NewNop())
	records, err := parser.Parse(strings.NewReader(sheetHeader +
		"SF,Jayson Tatum (12345),Jayson Tatum,12345,SF/F,9800,NYK@BOS 01/10/2025 07:30PM ET,BOS,52.3\n" +
		"SG,Bad Salary (1),Bad Salary,1,SG/G,not-a-number,NYK@BOS 01/10/2025 07:30PM ET,BOS,10.0\n" +
		"C,No Game Info (2),No Game Info,2,C/UTIL,4000,TBD,BOS,10.0\n"))
	if err != nil {
		t.Fatalf("parse sheet: %v", err)
	}
	if len(records) != 1 || records[0].Name != "Jayson Tatum" {
		t.Fatalf("malformed rows must be skipped: %+v", records)
	}
}

func TestParseSheetAllRowsBadFails(t *testing.T) {
	t.Parallel()

	parser := NewParser(logging.NewNop())
	if _, err := parser.Parse(strings.NewReader(sheetHeader +
		"SG,Bad Salary (1),Bad Salary,1,SG/G,zero,NYK@BOS 01/10/2025 07:30PM ET,BOS,10.0\n")); err == nil {
		t.Fatalf("a sheet with no usable rows must fail")
	}
}

func TestParseSheetMissingColumnFails(t *testing.T) {
	t.Parallel()

	parser := NewParser(logging.NewNop())
	if _, err := parser.Parse(strings.NewReader(
		"Position,Name,Roster Position,Salary,TeamAbbrev,AvgPointsPerGame\n")); err == nil {
		t.Fatalf("a sheet without the game info column must fail")
	}
}
