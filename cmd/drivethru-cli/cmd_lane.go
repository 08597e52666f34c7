package main

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	laneres "github.com/janhq/drivethru-server/internal/interfaces/httpserver/responses/lane"
	"github.com/janhq/drivethru-server/internal/utils/platformerrors"
)

var laneCmd = &cobra.Command{
	Use:   "lane",
	Short: "Lane simulation commands",
	Long:  `Drive a lane session against a running drive-thru API.`,
}

var laneRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a session and send utterances",
	Long: `Start a session at a lane, send one utterance per input line and print
the spoken replies. Lines starting with # are skipped. Reads stdin when
--file is not given.`,
	RunE: runLane,
}

func init() {
	laneCmd.AddCommand(laneRunCmd)

	laneRunCmd.Flags().String("server", "http://localhost:8190", "Drive-thru API base URL")
	laneRunCmd.Flags().String("lane", "lane-1", "Lane ID")
	laneRunCmd.Flags().Int64("restaurant", 1, "Restaurant ID")
	laneRunCmd.Flags().StringP("file", "f", "", "File with one utterance per line")
	laneRunCmd.Flags().Bool("keep", false, "Leave the session open when input ends")
	laneRunCmd.Flags().Duration("timeout", 60*time.Second, "Per-request timeout")
}

// laneClient wraps the lane endpoints of the API.
type laneClient struct {
	http *resty.Client
}

func newLaneClient(baseURL string, timeout time.Duration) *laneClient {
	return &laneClient{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
	}
}

func (c *laneClient) start(lane string, restaurantID int64) (*laneres.StartSessionResponse, error) {
	var out laneres.StartSessionResponse
	resp, err := c.http.R().
		SetPathParam("lane", lane).
		SetBody(map[string]any{"restaurant_id": restaurantID}).
		SetResult(&out).
		SetError(&platformerrors.HTTPErrorResponse{}).
		Post("/v1/lanes/{lane}/sessions")
	if err := checkResponse(resp, err, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *laneClient) say(sessionID, text string) (*laneres.TurnResponse, error) {
	var out laneres.TurnResponse
	resp, err := c.http.R().
		SetPathParam("id", sessionID).
		SetBody(map[string]string{"text": text}).
		SetResult(&out).
		SetError(&platformerrors.HTTPErrorResponse{}).
		Post("/v1/sessions/{id}/utterances")
	if err := checkResponse(resp, err, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *laneClient) end(sessionID string) error {
	resp, err := c.http.R().
		SetPathParam("id", sessionID).
		SetError(&platformerrors.HTTPErrorResponse{}).
		Delete("/v1/sessions/{id}")
	return checkResponse(resp, err, http.StatusNoContent)
}

func checkResponse(resp *resty.Response, err error, want int) error {
	if err != nil {
		return err
	}
	if resp.StatusCode() == want {
		return nil
	}
	if e, ok := resp.Error().(*platformerrors.HTTPErrorResponse); ok && e.Error != nil {
		return fmt.Errorf("%s: %s", resp.Status(), e.Error.Message)
	}
	return fmt.Errorf("unexpected status %s", resp.Status())
}

func runLane(cmd *cobra.Command, args []string) error {
	server, _ := cmd.Flags().GetString("server")
	lane, _ := cmd.Flags().GetString("lane")
	restaurantID, _ := cmd.Flags().GetInt64("restaurant")
	file, _ := cmd.Flags().GetString("file")
	keep, _ := cmd.Flags().GetBool("keep")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	verbose, _ := cmd.Flags().GetBool("verbose")

	var input io.Reader = os.Stdin
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("open utterance file: %w", err)
		}
		defer f.Close()
		input = f
	}

	client := newLaneClient(server, timeout)
	out := cmd.OutOrStdout()

	started, err := client.start(lane, restaurantID)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	fmt.Fprintf(out, "session %s at %s\n", started.Session.ID, lane)
	fmt.Fprintf(out, "  speaker: %s\n", started.Greeting.Text)

	if err := replay(input, out, func(text string) error {
		turn, err := client.say(started.Session.ID, text)
		if err != nil {
			return err
		}
		printTurn(out, turn, verbose)
		return nil
	}); err != nil {
		return err
	}

	if keep {
		fmt.Fprintf(out, "session %s left open\n", started.Session.ID)
		return nil
	}
	if err := client.end(started.Session.ID); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	fmt.Fprintln(out, "session ended")
	return nil
}

// replay calls send for every non-blank, non-comment line of in.
func replay(in io.Reader, out io.Writer, send func(string) error) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fmt.Fprintf(out, "customer: %s\n", line)
		if err := send(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func printTurn(out io.Writer, turn *laneres.TurnResponse, verbose bool) {
	fmt.Fprintf(out, "  speaker: %s\n", turn.Result.Message)
	if verbose {
		fmt.Fprintf(out, "    intent=%s (%.2f) workflow=%s outcome=%s phrase=%s %dms\n",
			turn.Intent.Intent, turn.Intent.Confidence,
			turn.Result.Workflow, turn.Result.Outcome, turn.Result.Phrase, turn.ElapsedMS)
		if turn.Instruction != "" && turn.Instruction != turn.Cleaned {
			fmt.Fprintf(out, "    resolved: %s\n", turn.Instruction)
		}
	}
	if turn.Order != nil && turn.Result.OrderUpdated {
		fmt.Fprintf(out, "    order: %s (total %s)\n", turn.Order.Summary, turn.Order.Total)
	}
}
