package stream

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/directory"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
)

// SFTPStream collects the run's users into a JSON document in a temp file
// and uploads it when the stream closes. No users means no upload; the
// temp file is removed either way.
type SFTPStream struct {
	logger *logger.Logger

	stream   *config.StreamConfig
	file     *os.File
	fileName string
	hasUsers bool

	upload func(localPath, host, username, password, destinationPath string) error
}

// NewSFTPStream creates an SFTP output stream
func NewSFTPStream(log *logger.Logger) *SFTPStream {
	s := &SFTPStream{logger: log}
	s.upload = s.sendFile
	return s
}

// Open creates the temp file and writes the document prologue
func (s *SFTPStream) Open(ctx context.Context, job *config.JobConfig, stream *config.StreamConfig) error {
	s.stream = stream
	s.fileName = filepath.Join(os.TempDir(), SafeFileName(job.Name)+".json")

	s.logger.WithStream(stream.Name).Debugf("writing users to file [%s]", s.fileName)

	file, err := os.Create(s.fileName)
	if err != nil {
		return fmt.Errorf("failed to create temp file %s: %w", s.fileName, err)
	}
	s.file = file

	_, err = file.WriteString("{\n\"users\":[\n")
	return err
}

// Write appends the record to the users array
func (s *SFTPStream) Write(ctx context.Context, record *directory.Record) error {
	if s.hasUsers {
		if _, err := s.file.WriteString(",\n"); err != nil {
			return err
		}
	}
	s.hasUsers = true

	_, err := s.file.WriteString(record.JSON())
	return err
}

// StreamComplete has nothing to do for SFTP output
func (s *SFTPStream) StreamComplete(ctx context.Context) error {
	return nil
}

// Close finishes the document, uploads it when any users were written and
// removes the temp file.
func (s *SFTPStream) Close() error {
	if _, err := s.file.WriteString("\n]}\n"); err != nil {
		s.file.Close()
		return err
	}
	if err := s.file.Close(); err != nil {
		return err
	}
	defer os.Remove(s.fileName)

	if !s.hasUsers {
		s.logger.WithStream(s.stream.Name).Debug("no users to update, skipping sftp transfer")
		return nil
	}

	host := s.stream.Setting("host", "")
	username := s.stream.Setting("username", "")
	password := s.stream.Setting("password", "")
	destinationPath := s.stream.Setting("destinationPath", "")

	return s.upload(s.fileName, host, username, password, destinationPath)
}

// sendFile transfers the local file to the configured sftp destination
func (s *SFTPStream) sendFile(localPath, host, username, password, destinationPath string) error {
	if !strings.Contains(host, ":") {
		host += ":22"
	}

	sshConfig := &ssh.ClientConfig{
		User:            username,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	conn, err := ssh.Dial("tcp", host, sshConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", host, err)
	}
	defer conn.Close()

	client, err := sftp.NewClient(conn)
	if err != nil {
		return fmt.Errorf("failed to start sftp session: %w", err)
	}
	defer client.Close()

	src, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()

	destPath := path.Join(destinationPath, filepath.Base(localPath))
	dst, err := client.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create remote file %s: %w", destPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to transfer %s: %w", destPath, err)
	}

	s.logger.WithStream(s.stream.Name).Infof("transferred %s to %s", localPath, destPath)
	return nil
}
