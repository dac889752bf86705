package application

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
)

// Format is the encoding of a snapshot document.
type Format string

// Supported snapshot encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Snapshot is a league together with the participants to score against it.
type Snapshot struct {
	League       domain.League
	Participants []domain.Participant
}

// DecodeSnapshot decodes a document of the form
// {"league": {...}, "participants": [...]} in the wire format, where tie
// groups, bonus categories, bonus predictions and swaps are pipe-joined
// strings. Structurally impossible input returns a *domain.ShapeError.
func DecodeSnapshot(data []byte, format Format) (Snapshot, error) {
	doc, err := decodeDocument(data, format)
	if err != nil {
		return Snapshot{}, err
	}
	root, err := asObject(doc, "snapshot")
	if err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	if raw, ok := root["league"]; ok && raw != nil {
		if snap.League, err = leagueFromWire(raw, "league"); err != nil {
			return Snapshot{}, err
		}
	}
	if raw, ok := root["participants"]; ok && raw != nil {
		if snap.Participants, err = participantsFromWire(raw, "participants"); err != nil {
			return Snapshot{}, err
		}
	}
	return snap, nil
}

// DecodeLeague decodes a single league snapshot.
func DecodeLeague(data []byte, format Format) (domain.League, error) {
	doc, err := decodeDocument(data, format)
	if err != nil {
		return domain.League{}, err
	}
	return leagueFromWire(doc, "league")
}

// DecodeParticipants decodes an array of participant snapshots.
func DecodeParticipants(data []byte, format Format) ([]domain.Participant, error) {
	doc, err := decodeDocument(data, format)
	if err != nil {
		return nil, err
	}
	return participantsFromWire(doc, "participants")
}

// wireLeague and wireParticipant mirror the pipe-joined wire format.
type wireLeague struct {
	ID                  string   `json:"id" yaml:"id"`
	Name                string   `json:"name" yaml:"name"`
	ContestantNames     []string `json:"contestantNames" yaml:"contestantNames"`
	EliminationLog      []string `json:"eliminationLog" yaml:"eliminationLog"`
	ChallengeWinnersLog []string `json:"challengeWinnersLog" yaml:"challengeWinnersLog"`
	LipSyncWinnersLog   []string `json:"lipSyncWinnersLog" yaml:"lipSyncWinnersLog"`
	ChallengePointValue int      `json:"challengePointValue" yaml:"challengePointValue"`
	LipSyncPointValue   int      `json:"lipSyncPointValue" yaml:"lipSyncPointValue"`
	BonusCategories     []string `json:"bonusCategories" yaml:"bonusCategories"`
}

type wireParticipant struct {
	ID                   string   `json:"id" yaml:"id"`
	Name                 string   `json:"name" yaml:"name"`
	RankingPrediction    []string `json:"rankingPrediction" yaml:"rankingPrediction"`
	WeeklyChallengePicks []string `json:"weeklyChallengePicks" yaml:"weeklyChallengePicks"`
	WeeklyLipSyncPicks   []string `json:"weeklyLipSyncPicks" yaml:"weeklyLipSyncPicks"`
	BonusPredictions     []string `json:"bonusPredictions" yaml:"bonusPredictions"`
	LipSyncAssassinPick  string   `json:"lipSyncAssassinPick" yaml:"lipSyncAssassinPick"`
	PendingSwap          string   `json:"pendingSwap,omitempty" yaml:"pendingSwap,omitempty"`
}

type wireSnapshot struct {
	League       wireLeague        `json:"league" yaml:"league"`
	Participants []wireParticipant `json:"participants" yaml:"participants"`
}

// EncodeSnapshot renders snap in the wire format read by DecodeSnapshot.
// A resolved bonus category with an empty answer encodes as unresolved.
func EncodeSnapshot(snap Snapshot, format Format) ([]byte, error) {
	wire := wireSnapshot{
		League:       leagueToWire(snap.League),
		Participants: make([]wireParticipant, 0, len(snap.Participants)),
	}
	for _, p := range snap.Participants {
		wire.Participants = append(wire.Participants, participantToWire(p))
	}

	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(wire); err != nil {
			return nil, fmt.Errorf("encode YAML snapshot: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode YAML snapshot: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(wire, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode JSON snapshot: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", format)
	}
}

func leagueToWire(l domain.League) wireLeague {
	w := wireLeague{
		ID:                  l.ID,
		Name:                l.Name,
		ContestantNames:     nonNil(l.ContestantNames),
		EliminationLog:      make([]string, 0, len(l.EliminationLog)),
		ChallengeWinnersLog: nonNil(l.ChallengeWinnersLog),
		LipSyncWinnersLog:   nonNil(l.LipSyncWinnersLog),
		ChallengePointValue: l.ChallengePointValue,
		LipSyncPointValue:   l.LipSyncPointValue,
		BonusCategories:     make([]string, 0, len(l.BonusCategories)),
	}
	for _, group := range l.EliminationLog {
		w.EliminationLog = append(w.EliminationLog, strings.Join(group, "|"))
	}
	for _, c := range l.BonusCategories {
		record := fmt.Sprintf("%s|%d|%s", c.Name, c.Points, c.Kind)
		if c.Resolved {
			record += "|" + c.Answer
		}
		w.BonusCategories = append(w.BonusCategories, record)
	}
	return w
}

func participantToWire(p domain.Participant) wireParticipant {
	w := wireParticipant{
		ID:                   p.ID,
		Name:                 p.Name,
		RankingPrediction:    nonNil(p.RankingPrediction),
		WeeklyChallengePicks: nonNil(p.WeeklyChallengePicks),
		WeeklyLipSyncPicks:   nonNil(p.WeeklyLipSyncPicks),
		BonusPredictions:     make([]string, 0, len(p.BonusPredictions)),
		LipSyncAssassinPick:  p.LipSyncAssassinPick,
	}
	for _, b := range p.BonusPredictions {
		w.BonusPredictions = append(w.BonusPredictions, b.Category+"|"+b.Answer)
	}
	if p.PendingSwap != nil {
		w.PendingSwap = p.PendingSwap.First + "|" + p.PendingSwap.Second
	}
	return w
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// decodeDocument parses data into generic maps and slices so that field
// shapes can be checked before anything is converted.
func decodeDocument(data []byte, format Format) (any, error) {
	var doc any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode YAML snapshot: %w", err)
		}
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode JSON snapshot: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", format)
	}
	return doc, nil
}

func leagueFromWire(raw any, path string) (domain.League, error) {
	obj, err := asObject(raw, path)
	if err != nil {
		return domain.League{}, err
	}

	var league domain.League
	if league.ID, err = stringField(obj, "id", path); err != nil {
		return domain.League{}, err
	}
	if league.Name, err = stringField(obj, "name", path); err != nil {
		return domain.League{}, err
	}
	if league.ContestantNames, err = stringList(obj, "contestantNames", path); err != nil {
		return domain.League{}, err
	}

	events, err := stringList(obj, "eliminationLog", path)
	if err != nil {
		return domain.League{}, err
	}
	for _, entry := range events {
		if group := parseTieGroup(entry); len(group) > 0 {
			league.EliminationLog = append(league.EliminationLog, group)
		}
	}

	if league.ChallengeWinnersLog, err = stringList(obj, "challengeWinnersLog", path); err != nil {
		return domain.League{}, err
	}
	if league.LipSyncWinnersLog, err = stringList(obj, "lipSyncWinnersLog", path); err != nil {
		return domain.League{}, err
	}

	records, err := stringList(obj, "bonusCategories", path)
	if err != nil {
		return domain.League{}, err
	}
	for _, record := range records {
		if category, ok := parseBonusCategory(record); ok {
			league.BonusCategories = append(league.BonusCategories, category)
		}
	}

	league.ChallengePointValue = pointValue(obj["challengePointValue"])
	league.LipSyncPointValue = pointValue(obj["lipSyncPointValue"])
	return league, nil
}

func participantsFromWire(raw any, path string) ([]domain.Participant, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, domain.NewShapeError(path, "array of participants", shapeName(raw))
	}

	participants := make([]domain.Participant, 0, len(items))
	for i, item := range items {
		p, err := participantFromWire(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		if p.ID == "" {
			p.ID = strconv.Itoa(i + 1)
		}
		participants = append(participants, p)
	}
	return participants, nil
}

func participantFromWire(raw any, path string) (domain.Participant, error) {
	obj, err := asObject(raw, path)
	if err != nil {
		return domain.Participant{}, err
	}

	var p domain.Participant
	if p.ID, err = pickField(obj, "id", path); err != nil {
		return domain.Participant{}, err
	}
	if p.Name, err = pickField(obj, "name", path); err != nil {
		return domain.Participant{}, err
	}
	if p.RankingPrediction, err = pickList(obj, "rankingPrediction", path); err != nil {
		return domain.Participant{}, err
	}
	if p.WeeklyChallengePicks, err = pickList(obj, "weeklyChallengePicks", path); err != nil {
		return domain.Participant{}, err
	}
	if p.WeeklyLipSyncPicks, err = pickList(obj, "weeklyLipSyncPicks", path); err != nil {
		return domain.Participant{}, err
	}

	predictions, err := pickList(obj, "bonusPredictions", path)
	if err != nil {
		return domain.Participant{}, err
	}
	for _, record := range predictions {
		if prediction, ok := parseBonusPrediction(record); ok {
			p.BonusPredictions = append(p.BonusPredictions, prediction)
		}
	}

	if p.LipSyncAssassinPick, err = pickField(obj, "lipSyncAssassinPick", path); err != nil {
		return domain.Participant{}, err
	}

	swap, err := pickField(obj, "pendingSwap", path)
	if err != nil {
		return domain.Participant{}, err
	}
	p.PendingSwap = parseSwap(swap)
	return p, nil
}

// parseTieGroup splits an elimination event into the names eliminated
// together. Only "|" separates names in this field.
func parseTieGroup(entry string) []string {
	var names []string
	for _, part := range strings.Split(entry, "|") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// parseBonusCategory reads "name|points|kind|answer". The first three
// fields are positional; everything after the third separator is the
// answer, which may itself be a pipe-joined set.
func parseBonusCategory(record string) (domain.BonusCategory, bool) {
	fields := strings.SplitN(record, "|", 4)
	name := strings.TrimSpace(fields[0])
	if name == "" {
		return domain.BonusCategory{}, false
	}

	category := domain.BonusCategory{Name: name, Kind: domain.AnswerContestants}
	if len(fields) > 1 {
		category.Points = pointValue(strings.TrimSpace(fields[1]))
	}
	if len(fields) > 2 {
		category.Kind = parseAnswerKind(fields[2])
	}
	if len(fields) > 3 {
		if answer := strings.TrimSpace(fields[3]); answer != "" {
			category.Answer = answer
			category.Resolved = true
		}
	}
	return category, true
}

// parseAnswerKind maps the wire spelling of a category kind. Unknown kinds
// compare as contestant sets.
func parseAnswerKind(kind string) domain.AnswerKind {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "number", "numeric":
		return domain.AnswerNumber
	case "yesno", "yes/no", "yes_no", "boolean":
		return domain.AnswerYesNo
	default:
		return domain.AnswerContestants
	}
}

// parseBonusPrediction reads "category|answer"; the answer keeps any
// further separators.
func parseBonusPrediction(record string) (domain.BonusPrediction, bool) {
	category, answer, _ := strings.Cut(record, "|")
	category = strings.TrimSpace(category)
	if category == "" {
		return domain.BonusPrediction{}, false
	}
	return domain.BonusPrediction{Category: category, Answer: strings.TrimSpace(answer)}, true
}

// parseSwap reads "nameA|nameB". Anything but exactly two non-empty names
// means no swap.
func parseSwap(value string) *domain.Swap {
	parts := strings.Split(value, "|")
	if len(parts) != 2 {
		return nil
	}
	first, second := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if first == "" || second == "" {
		return nil
	}
	return &domain.Swap{First: first, Second: second}
}

// pointValue accepts a number or a numeric string; anything else is zero.
func pointValue(raw any) int {
	var f float64
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		parsed, err := v.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0
	}
	return int(f)
}

func asObject(raw any, path string) (map[string]any, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, domain.NewShapeError(path, "object", shapeName(raw))
	}
	return obj, nil
}

// stringField reads an optional string. Missing and null read as "".
func stringField(obj map[string]any, key, path string) (string, error) {
	switch v := obj[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", domain.NewShapeError(path+"."+key, "string", shapeName(v))
	}
}

// stringList reads an optional array of strings. Missing and null read as
// nil; null elements read as "".
func stringList(obj map[string]any, key, path string) ([]string, error) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, domain.NewShapeError(path+"."+key, "array of strings", shapeName(raw))
	}

	out := make([]string, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case nil:
		case string:
			out[i] = v
		default:
			return nil, domain.NewShapeError(fmt.Sprintf("%s.%s[%d]", path, key, i), "string", shapeName(v))
		}
	}
	return out, nil
}

// pickField reads an optional participant string. Scalars of another type
// read as ""; arrays and objects are rejected.
func pickField(obj map[string]any, key, path string) (string, error) {
	switch v := obj[key].(type) {
	case string:
		return v, nil
	case []any, map[string]any:
		return "", domain.NewShapeError(path+"."+key, "string", shapeName(v))
	default:
		return "", nil
	}
}

// pickList reads an optional participant array. A non-array value is a
// shape error; elements that are not strings read as "".
func pickList(obj map[string]any, key, path string) ([]string, error) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, domain.NewShapeError(path+"."+key, "array of strings", shapeName(raw))
	}

	out := make([]string, len(items))
	for i, item := range items {
		if v, ok := item.(string); ok {
			out[i] = v
		}
	}
	return out, nil
}

// shapeName names the JSON type of a decoded value.
func shapeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64, float64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
