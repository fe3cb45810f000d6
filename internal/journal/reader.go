package journal

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/yanun0323/errors"

	"main/internal/model"
)

// Replay streams every fill in the journal to fn, in append order.
// A missing journal file is not an error; there is simply nothing to
// replay.
func Replay(path string, fn func(fill model.Fill) error) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var fill model.Fill
		if err := json.Unmarshal(raw, &fill); err != nil {
			return errors.Errorf("journal: decode line %d, err: %+v", line, err)
		}
		if err := fn(fill); err != nil {
			return err
		}
	}
	return scanner.Err()
}
