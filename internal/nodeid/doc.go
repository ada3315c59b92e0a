/*
Package nodeid parses and formats plug addresses used by grid files and the
command line.

An address names a plug of an instance, `instance.plug`, optionally selecting
one element of an array plug, `instance.plug[2]`. The plug segment may be a
key or a short name; resolution happens later against the node type.
*/
package nodeid
