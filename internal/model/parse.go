package model

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// bpmnDefinitions mirrors the subset of BPMN 2.0 XML this package consumes:
// bpmn:task / bpmn:intermediateCatchEvent elements carrying Imixs extension
// attributes, plus embedded bpmn:dataObject children holding literal text.
type bpmnDefinitions struct {
	XMLName xml.Name    `xml:"definitions"`
	Process bpmnProcess `xml:"process"`
}

type bpmnProcess struct {
	Tasks  []bpmnTask  `xml:"task"`
	Events []bpmnEvent `xml:"intermediateCatchEvent"`
}

type bpmnExtension struct {
	Items []bpmnItem `xml:"item"`
}

type bpmnItem struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type bpmnDataObject struct {
	Name string `xml:"name,attr"`
	Text string `xml:",chardata"`
}

type bpmnTask struct {
	ID          string          `xml:"id,attr"`
	Name        string          `xml:"name,attr"`
	Extension   bpmnExtension   `xml:"extensionElements"`
	DataObjects []bpmnDataObject `xml:"dataObject"`
}

type bpmnEvent struct {
	ID        string        `xml:"id,attr"`
	Name      string        `xml:"name,attr"`
	Extension bpmnExtension `xml:"extensionElements"`
}

func (e bpmnExtension) item(name string) (string, bool) {
	for _, it := range e.Items {
		if strings.EqualFold(it.Name, name) {
			return strings.TrimSpace(it.Value), true
		}
	}
	return "", false
}

func requireInt(e bpmnExtension, field, elementID string) (int, error) {
	raw, ok := e.item(field)
	if !ok || raw == "" {
		return 0, ErrInvalidModel(elementID, fmt.Errorf("missing required %s", field))
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrInvalidModel(elementID, fmt.Errorf("%s is not numeric: %v", field, err))
	}
	return n, nil
}

// ParseDefinition parses a single BPMN 2.0 XML model document into a Model
// registered under the given Definition. A Task element must carry
// numeric numprocessid plus a workflow-group; an Event element must carry
// numprocessid (source task), numactivityid (event id), and numnextprocessid
// (successor task); DataObjects are embedded children whose text content is
// the payload.
func ParseDefinition(r io.Reader, def Definition) (*Model, error) {
	var doc bpmnDefinitions
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, ErrInvalidModel(def.Version, fmt.Errorf("malformed BPMN XML: %w", err))
	}

	m := NewModel(def)

	for _, bt := range doc.Process.Tasks {
		processID, err := requireInt(bt.Extension, "numprocessid", bt.ID)
		if err != nil {
			return nil, err
		}
		group, ok := bt.Extension.item("txtworkflowgroup")
		if !ok || group == "" {
			return nil, ErrInvalidModel(bt.ID, fmt.Errorf("missing required txtworkflowgroup"))
		}
		state, _ := bt.Extension.item("txtworkflowstate")

		task := &Task{
			ID:            processID,
			Name:          bt.Name,
			WorkflowGroup: group,
			WorkflowState: state,
			ACL:           parseACLAnnotation(bt.Extension),
			DataObjects:   make(map[string]string, len(bt.DataObjects)),
		}
		for _, do := range bt.DataObjects {
			task.DataObjects[do.Name] = strings.TrimSpace(do.Text)
		}
		if err := m.AddTask(task); err != nil {
			return nil, err
		}
	}

	for _, be := range doc.Process.Events {
		taskID, err := requireInt(be.Extension, "numprocessid", be.ID)
		if err != nil {
			return nil, err
		}
		eventID, err := requireInt(be.Extension, "numactivityid", be.ID)
		if err != nil {
			return nil, err
		}
		nextTaskID, err := requireInt(be.Extension, "numnextprocessid", be.ID)
		if err != nil {
			return nil, err
		}

		event := &Event{
			TaskID:  taskID,
			EventID: eventID,
			Name:    be.Name,
			Next:    NodeRef{Kind: NodeTask, ID: nextTaskID},
			ACL:     parseACLAnnotation(be.Extension),
		}
		if raw, ok := be.Extension.item("keypluginschain"); ok && raw != "" {
			event.Plugins = splitList(raw)
		}
		if raw, ok := be.Extension.item("txtmailsubject"); ok {
			event.MailSubject = raw
		}
		if raw, ok := be.Extension.item("txtmailbody"); ok {
			event.MailBody = raw
		}
		if raw, ok := be.Extension.item("rtfmailinactive"); ok {
			event.MailInactive = strings.EqualFold(raw, "true") || raw == "1"
		}
		if raw, ok := be.Extension.item("txtbusinessrule"); ok {
			event.RuleScript = raw
		}
		if raw, ok := be.Extension.item("keyfollowup"); ok && raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				event.FollowUp = &n
			}
		}
		if err := m.AddEvent(event); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseACLAnnotation(e bpmnExtension) ACLAnnotation {
	var acl ACLAnnotation
	if raw, ok := e.item("keyupdateacl"); ok {
		acl.UpdateACL = strings.EqualFold(raw, "true") || raw == "1"
	}
	if raw, ok := e.item("namaddreadaccess"); ok {
		acl.AddReadAccess = splitList(raw)
	}
	if raw, ok := e.item("namaddwriteaccess"); ok {
		acl.AddWriteAccess = splitList(raw)
	}
	if raw, ok := e.item("keyaddreadfields"); ok {
		acl.AddReadFields = splitList(raw)
	}
	if raw, ok := e.item("keyaddwritefields"); ok {
		acl.AddWriteFields = splitList(raw)
	}
	if raw, ok := e.item("namownershipnames"); ok {
		acl.OwnershipNames = splitList(raw)
	}
	if raw, ok := e.item("keyownershipfields"); ok {
		acl.OwnershipFields = splitList(raw)
	}
	return acl
}
