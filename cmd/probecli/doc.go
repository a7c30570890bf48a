// Command probecli analyzes acoustic probe result files from the command line.
//
// Every subcommand takes files and directories, parses the .raw/.imp files it
// finds and works on the merged batch:
//
//	probecli analyze data/                  files, sections and errors
//	probecli sections data/ --station TS-01 sections of the matching files
//	probecli summary data/ -s Impedance --lower 45 --upper 55
//	probecli headers data/ --status fail    header table
//	probecli export data/ -o out.xlsx       workbook or CSV export
package main
